package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// matchPrefix resolves the unique ID starting with ref, so the eight
// character IDs shown in tables can be typed back.
func matchPrefix(kind, ref string, ids []string) (string, error) {
	var matches []string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s %q: %w", kind, ref, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s ID prefix %q is ambiguous (%d matches): %w", kind, ref, len(matches), domain.ErrValidation)
	}
}

func (a *App) notificationID(cmd *cobra.Command, user *domain.User, ref string) (string, error) {
	items, err := a.Notifications.List(cmd.Context(), user, false, 0)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(items))
	for i, n := range items {
		ids[i] = n.ID
	}
	return matchPrefix("notification", ref, ids)
}

// documentID searches the given project's documents, or every project's
// when project is empty.
func (a *App) documentID(cmd *cobra.Command, project, ref string) (string, error) {
	ctx := cmd.Context()
	var projectIDs []string
	if project != "" {
		id, err := a.projectID(ctx, project)
		if err != nil {
			return "", err
		}
		projectIDs = []string{id}
	} else {
		projects, err := a.Projects.List(ctx, true)
		if err != nil {
			return "", err
		}
		for _, p := range projects {
			projectIDs = append(projectIDs, p.ID)
		}
	}

	var ids []string
	for _, pid := range projectIDs {
		docs, err := a.Documents.List(ctx, pid)
		if err != nil {
			return "", err
		}
		for _, d := range docs {
			ids = append(ids, d.ID)
		}
	}
	return matchPrefix("document", ref, ids)
}
