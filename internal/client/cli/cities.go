package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/fitshare/internal/client/cities"
)

func (c *Cli) citiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cities [prefix]",
		Short: "List known cities, optionally by name prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prefix string
			if len(args) > 0 {
				prefix = args[0]
			}
			return c.runCities(cmd.Context(), prefix)
		},
	}
}

func (c *Cli) runCities(ctx context.Context, prefix string) error {
	all, err := c.cities.Get(ctx)
	if errors.Is(err, cities.ErrNotConfigured) {
		return fmt.Errorf("cities list is not available: set cities_api_url or FITSHARE_CITIES_API_URL")
	}
	if err != nil {
		return fmt.Errorf("failed to load cities: %w", err)
	}

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	names := make([]string, 0, len(all))
	for _, name := range all {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			names = append(names, name)
		}
	}
	return c.render(c.io, "cities", names)
}

// checkCity сверяет город со справочником и подставляет написание из него.
// Пустое значение допустимо. Без справочника проверку оставляем серверу.
func (c *Cli) checkCity(ctx context.Context, city *string) error {
	if city == nil || strings.TrimSpace(*city) == "" {
		return nil
	}

	name, ok, err := c.cities.Lookup(ctx, *city)
	switch {
	case errors.Is(err, cities.ErrNotConfigured):
		return nil
	case err != nil:
		c.logger.WarnContext(ctx, "failed to load cities", "error", err)
		return nil
	case !ok:
		return fmt.Errorf("unknown city %q (run 'fitshare cities')", strings.TrimSpace(*city))
	}
	*city = name
	return nil
}
