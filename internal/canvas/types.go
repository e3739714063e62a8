package canvas

// Course is a Canvas course. Courses the caller cannot fully see come back
// without a name.
type Course struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CourseCode string `json:"course_code,omitempty"`
}

// Group is a student group inside a course's group set.
type Group struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	GroupCategoryID int64  `json:"group_category_id"`
	MembersCount    int    `json:"members_count,omitempty"`
}

// User is a course member.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SortableName string `json:"sortable_name"`
	LoginID      string `json:"login_id,omitempty"`
}

// Assignment is a gradable item in a course.
type Assignment struct {
	ID                     int64  `json:"id"`
	Name                   string `json:"name"`
	DueAt                  string `json:"due_at,omitempty"`
	HTMLURL                string `json:"html_url,omitempty"`
	SubmissionsDownloadURL string `json:"submissions_download_url,omitempty"`
}
