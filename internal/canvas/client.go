package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomnomnom/linkheader"
	"golang.org/x/oauth2"
)

const (
	apiPrefix      = "/api/v1"
	defaultPerPage = 100
	maxErrorBody   = 512
)

// ErrAPI indicates Canvas answered with a non-success status.
var ErrAPI = errors.New("canvas api error")

// APIError carries the failing request and a trimmed response body.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s returned %d: %s", ErrAPI, e.URL, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return ErrAPI }

// Client talks to the Canvas REST API with a bearer token.
type Client struct {
	client  *http.Client
	baseURL string
	perPage int
}

// NewClient creates a client for the Canvas instance at baseURL.
func NewClient(baseURL, token string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &Client{
		client: &http.Client{
			Timeout:   60 * time.Second,
			Transport: &oauth2.Transport{Source: src, Base: http.DefaultTransport},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		perPage: defaultPerPage,
	}
}

// ListCourses returns every course visible to the token owner.
func (c *Client) ListCourses(ctx context.Context) ([]Course, error) {
	return getAll[Course](ctx, c, "/courses", nil)
}

// GetCourse fetches a single course.
func (c *Client) GetCourse(ctx context.Context, courseID int64) (*Course, error) {
	var course Course
	if err := c.getOne(ctx, fmt.Sprintf("/courses/%d", courseID), &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListGroups returns all groups of a course, across group sets.
func (c *Client) ListGroups(ctx context.Context, courseID int64) ([]Group, error) {
	return getAll[Group](ctx, c, fmt.Sprintf("/courses/%d/groups", courseID), nil)
}

// ListStudents returns users enrolled as students.
func (c *Client) ListStudents(ctx context.Context, courseID int64) ([]User, error) {
	q := url.Values{}
	q.Add("enrollment_type[]", "student")
	return getAll[User](ctx, c, fmt.Sprintf("/courses/%d/users", courseID), q)
}

// ListGroupUsers returns the members of a group.
func (c *Client) ListGroupUsers(ctx context.Context, groupID int64) ([]User, error) {
	return getAll[User](ctx, c, fmt.Sprintf("/groups/%d/users", groupID), nil)
}

// ListAssignments returns every assignment of a course.
func (c *Client) ListAssignments(ctx context.Context, courseID int64) ([]Assignment, error) {
	return getAll[Assignment](ctx, c, fmt.Sprintf("/courses/%d/assignments", courseID), nil)
}

// GetAssignment fetches one assignment.
func (c *Client) GetAssignment(ctx context.Context, courseID, assignmentID int64) (*Assignment, error) {
	var a Assignment
	if err := c.getOne(ctx, fmt.Sprintf("/courses/%d/assignments/%d", courseID, assignmentID), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SpeedGraderURL links straight to one student's submission in SpeedGrader.
func (c *Client) SpeedGraderURL(courseID, assignmentID, userID int64) string {
	q := url.Values{}
	q.Set("assignment_id", strconv.FormatInt(assignmentID, 10))
	q.Set("student_id", strconv.FormatInt(userID, 10))
	return fmt.Sprintf("%s/courses/%d/gradebook/speed_grader?%s", c.baseURL, courseID, q.Encode())
}

func (c *Client) getOne(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, c.baseURL+apiPrefix+path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// getAll follows Link rel="next" headers until the collection is exhausted.
func getAll[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	if q == nil {
		q = url.Values{}
	}
	q.Set("per_page", strconv.Itoa(c.perPage))
	next := c.baseURL + apiPrefix + path + "?" + q.Encode()

	var out []T
	for next != "" {
		resp, err := c.do(ctx, next)
		if err != nil {
			return nil, err
		}
		var page []T
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		out = append(out, page...)
		next = nextLink(resp.Header.Get("Link"))
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("canvas request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			URL:        rawURL,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}

// nextLink returns the rel="next" target of a Link header, if any.
func nextLink(header string) string {
	next := linkheader.Parse(header).FilterByRel("next")
	if len(next) == 0 {
		return ""
	}
	return next[0].URL
}
