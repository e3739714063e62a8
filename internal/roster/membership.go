package roster

import (
	"context"
	"fmt"
	"log"
	"sort"

	"coursekit/internal/canvas"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Provider is the slice of the Canvas API the roster needs.
type Provider interface {
	ListGroups(ctx context.Context, courseID int64) ([]canvas.Group, error)
	ListGroupUsers(ctx context.Context, groupID int64) ([]canvas.User, error)
	ListStudents(ctx context.Context, courseID int64) ([]canvas.User, error)
}

// Membership links course users to the group they belong to.
type Membership struct {
	Users     map[int64]canvas.User
	Groups    map[int64]canvas.Group
	UserGroup map[int64]int64
}

// Member is one roster row: a user and its group, if any.
type Member struct {
	UserID    int64
	UserName  string
	GroupID   int64
	GroupName string
}

// UsersByGroup loads the course groups and their members.
//
// A course can carry the same groups in several group sets. Only the groups
// of the lowest group_category_id are kept so every user maps to one group.
func UsersByGroup(ctx context.Context, p Provider, courseID int64) (*Membership, error) {
	groups, err := p.ListGroups(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	log.Printf("Loaded %d groups", len(groups))

	m := &Membership{
		Users:     make(map[int64]canvas.User),
		Groups:    make(map[int64]canvas.Group),
		UserGroup: make(map[int64]int64),
	}
	if len(groups) == 0 {
		return m, nil
	}

	category := groups[0].GroupCategoryID
	for _, g := range groups[1:] {
		if g.GroupCategoryID < category {
			category = g.GroupCategoryID
		}
	}
	for _, g := range groups {
		if g.GroupCategoryID == category {
			m.Groups[g.ID] = g
		}
	}
	log.Printf("Filtered to %d groups", len(m.Groups))

	for _, id := range sortedGroupIDs(m.Groups) {
		users, err := p.ListGroupUsers(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to list users of group %d: %w", id, err)
		}
		for _, u := range users {
			m.Users[u.ID] = u
			m.UserGroup[u.ID] = id
		}
	}
	return m, nil
}

// AddUngrouped adds users that are not yet part of the membership.
func (m *Membership) AddUngrouped(users []canvas.User) int {
	added := 0
	for _, u := range users {
		if _, ok := m.Users[u.ID]; ok {
			continue
		}
		m.Users[u.ID] = u
		added++
	}
	return added
}

// Members returns every user ordered by sortable name.
func (m *Membership) Members() []Member {
	out := make([]Member, 0, len(m.Users))
	for id, u := range m.Users {
		member := Member{UserID: id, UserName: displayName(u)}
		if gid, ok := m.UserGroup[id]; ok {
			member.GroupID = gid
			member.GroupName = m.Groups[gid].Name
		}
		out = append(out, member)
	}
	SortMembers(out)
	return out
}

// SortMembers orders members by name using English collation, then by id.
func SortMembers(members []Member) {
	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(members, func(i, j int) bool {
		if c := col.CompareString(members[i].UserName, members[j].UserName); c != 0 {
			return c < 0
		}
		return members[i].UserID < members[j].UserID
	})
}

func displayName(u canvas.User) string {
	if u.SortableName != "" {
		return u.SortableName
	}
	return u.Name
}

func sortedGroupIDs(groups map[int64]canvas.Group) []int64 {
	ids := make([]int64, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
