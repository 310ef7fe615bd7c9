package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hassdesk/hassdesk/internal/models"
	"github.com/hassdesk/hassdesk/internal/rpc"
	"github.com/hassdesk/hassdesk/internal/tui"
)

var listAvailable bool

var entitiesCmd = &cobra.Command{
	Use:     "entities",
	Aliases: []string{"entity"},
	Short:   "Manage the entities shown in the tray menu",
}

var entitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscribed entities",
	Args:  cobra.NoArgs,
	RunE:  runEntitiesList,
}

var entitiesAddCmd = &cobra.Command{
	Use:   "add <entity_id>...",
	Short: "Subscribe to entities",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var added []string
		err := updateSubscriptions(func(current []string) ([]string, error) {
			next, a, err := addEntities(current, args)
			added = a
			return next, err
		})
		if err != nil {
			return err
		}
		for _, id := range added {
			fmt.Println(styleSuccess.Render("Added " + id))
		}
		return nil
	},
}

var entitiesRemoveCmd = &cobra.Command{
	Use:     "remove <entity_id>...",
	Aliases: []string{"rm"},
	Short:   "Unsubscribe from entities",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateSubscriptions(func(current []string) ([]string, error) {
			next, missing := removeEntities(current, args)
			for _, id := range missing {
				fmt.Println(styleWarning.Render(id + " is not subscribed"))
			}
			return next, nil
		})
	},
}

func init() {
	entitiesListCmd.Flags().BoolVarP(&listAvailable, "available", "a", false, "List every entity Home Assistant offers")

	entitiesCmd.AddCommand(entitiesAddCmd)
	entitiesCmd.AddCommand(entitiesListCmd)
	entitiesCmd.AddCommand(entitiesRemoveCmd)
}

func runEntitiesList(cmd *cobra.Command, args []string) error {
	if listAvailable {
		// Only a connected daemon knows the upstream entities.
		if err := EnsureDaemon(); err != nil {
			return err
		}
	}

	backend, closeBackend, err := openBackend()
	if err != nil {
		return err
	}
	defer closeBackend()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	subscribed, err := subscriptions(ctx, backend)
	if err != nil {
		return err
	}
	known, listErr := backend.ListEntities(ctx)

	if listAvailable {
		if listErr != nil {
			return fmt.Errorf("failed to list entities: %w", listErr)
		}
		fmt.Print(formatAvailable(known, subscribed))
		return nil
	}

	if len(subscribed) == 0 {
		fmt.Println(styleHint.Render("No subscribed entities. Add one with: hassdesk entities add <entity_id>"))
		return nil
	}
	if listErr != nil {
		known = nil
	}
	fmt.Print(formatSubscribed(subscribed, known))
	return nil
}

// updateSubscriptions applies change to the subscription list and saves it.
func updateSubscriptions(change func([]string) ([]string, error)) error {
	backend, closeBackend, err := openBackend()
	if err != nil {
		return err
	}
	defer closeBackend()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	current, err := subscriptions(ctx, backend)
	if err != nil {
		return err
	}
	next, err := change(current)
	if err != nil {
		return err
	}
	if equalIDs(current, next) {
		return nil
	}
	if err := backend.SetSetting(ctx, models.KeyHomeAssistantSubscribedEntities, next); err != nil {
		return fmt.Errorf("failed to save subscriptions: %w", err)
	}
	return nil
}

func subscriptions(ctx context.Context, backend tui.Backend) ([]string, error) {
	values, err := backend.GetSettings(ctx, models.KeyHomeAssistantSubscribedEntities)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	switch v := values[models.KeyHomeAssistantSubscribedEntities].(type) {
	case []string:
		return v, nil
	case []interface{}:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				ids = append(ids, s)
			}
		}
		return ids, nil
	}
	return nil, nil
}

// addEntities appends ids not yet in current, keeping order. It rejects
// anything that is not shaped like an entity ID.
func addEntities(current, ids []string) (next, added []string, err error) {
	seen := make(map[string]bool, len(current))
	for _, id := range current {
		seen[id] = true
	}
	next = append([]string(nil), current...)
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if !strings.Contains(id, ".") {
			return nil, nil, fmt.Errorf("%q is not an entity ID (domain.object_id)", id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		next = append(next, id)
		added = append(added, id)
	}
	return next, added, nil
}

// removeEntities drops ids from current and reports the ones it did not find.
func removeEntities(current, ids []string) (next, missing []string) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[strings.TrimSpace(id)] = true
	}
	found := make(map[string]bool, len(ids))
	for _, id := range current {
		if drop[id] {
			found[id] = true
			continue
		}
		next = append(next, id)
	}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if !found[id] {
			missing = append(missing, id)
			found[id] = true
		}
	}
	return next, missing
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// formatSubscribed lists subscribed IDs in menu order, with names and states
// when the daemon knows the entity.
func formatSubscribed(subscribed []string, known []rpc.Entity) string {
	byID := make(map[string]rpc.Entity, len(known))
	for _, e := range known {
		byID[e.ID] = e
	}

	var b strings.Builder
	for _, id := range subscribed {
		e, ok := byID[id]
		switch {
		case ok:
			fmt.Fprintf(&b, "%s  %s\n", styleValue.Render(e.Label()), styleHint.Render(e.State))
		case known != nil:
			fmt.Fprintf(&b, "%s  %s\n", styleValue.Render(id), styleWarning.Render("(not found)"))
		default:
			fmt.Fprintln(&b, styleValue.Render(id))
		}
	}
	return b.String()
}

// formatAvailable lists every upstream entity and marks subscribed ones.
func formatAvailable(known []rpc.Entity, subscribed []string) string {
	sub := make(map[string]bool, len(subscribed))
	for _, id := range subscribed {
		sub[id] = true
	}

	var b strings.Builder
	for _, e := range known {
		mark := "  "
		if sub[e.ID] {
			mark = styleSuccess.Render("✓ ")
		}
		fmt.Fprintf(&b, "%s%s  %s\n", mark, styleValue.Render(e.Label()), styleHint.Render(e.State))
	}
	return b.String()
}
