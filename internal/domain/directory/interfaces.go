package directory

import "context"

// Directory answers who may act on a project. Elevated rights means the user
// can manage the project's design and user rights.
type Directory interface {
	// UsersWithElevatedRights lists usernames holding elevated rights on the
	// project, sorted.
	UsersWithElevatedRights(ctx context.Context, projectID int64) ([]string, error)
	// ProjectUsers lists every username with any rights on the project, sorted.
	ProjectUsers(ctx context.Context, projectID int64) ([]string, error)
	// Creator returns the user who created the project, or nil when unknown.
	Creator(ctx context.Context, projectID int64) (*User, error)
	// LookupUsers resolves account details; unknown usernames are absent from
	// the result.
	LookupUsers(ctx context.Context, usernames []string) (map[string]User, error)
	// ArchivedProjectCount counts archived projects the user has rights on.
	ArchivedProjectCount(ctx context.Context, username string) (int, error)
}

// HasElevatedRights reports whether username appears in the project's
// elevated-rights list.
func HasElevatedRights(ctx context.Context, dir Directory, projectID int64, username string) (bool, error) {
	users, err := dir.UsersWithElevatedRights(ctx, projectID)
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u == username {
			return true, nil
		}
	}
	return false, nil
}
