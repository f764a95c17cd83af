package orchestrate

import (
	"context"

	"github.com/udisescan/udisescan/internal/config"
	"github.com/udisescan/udisescan/internal/extract"
	"github.com/udisescan/udisescan/internal/paginate"
	"github.com/udisescan/udisescan/internal/portal"
	"github.com/udisescan/udisescan/internal/record"
)

// Harvester is the production Lister: it pages through the live listing and
// extracts every rendered record.
type Harvester struct {
	listing   *portal.Listing
	extractor *extract.Extractor
	pager     *paginate.Paginator
}

// NewHarvester wires the listing surface, extractor, and paginator together.
func NewHarvester(listing *portal.Listing, extractor *extract.Extractor, cfg config.Config, controls []string) *Harvester {
	return &Harvester{
		listing:   listing,
		extractor: extractor,
		pager: paginate.New(paginate.Config{
			MaxPages:      cfg.MaxPages,
			ClickAttempts: cfg.ClickAttempts,
			PageDelay:     cfg.PageDelay,
			ClickRetryGap: cfg.SettleDelay,
			NextControls:  controls,
		}),
	}
}

// Harvest runs the paginator over the current search results, stamping every
// record with the region context.
func (h *Harvester) Harvest(ctx context.Context, rctx extract.Context, sink paginate.SinkFunc) (int, error) {
	return h.pager.Run(ctx, h.listing,
		func(html string) ([]record.Record, error) {
			return h.extractor.Extract(html, rctx)
		},
		sink,
	)
}
