package metafields

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopadmin-cli/shopadmin/internal/utils"
	"github.com/shopadmin-cli/shopadmin/pkg/apierr"
)

const (
	thinLine  = "────────────────────────────────────────────────────────────────────────────────"
	thickLine = "════════════════════════════════════════════════════════════════════════════════"
)

// Options controls one reclamation run.
type Options struct {
	ResourceType ResourceType
	// Force deletes every unstructured metafield without asking.
	Force bool
	// WarmUp is the pause before a forced run starts. Zero means ForceModeWarmUp.
	WarmUp time.Duration
	// Shop names the store in error suggestions and journal entries.
	Shop string
	// Ledger may be shared with the caller. A fresh one is used when nil.
	Ledger  *Ledger
	Journal Journal
	Out     io.Writer
	// Sleep replaces time.Sleep in tests.
	Sleep func(time.Duration)
}

// Summary is what a run did.
type Summary struct {
	ResourceType ResourceType
	// Scanned counts resources seen since the last restart.
	Scanned     int
	Deleted     int
	DeletedKeys []string
	Skipped     int
	Failed      int
	Restarts    int
	Pages       int
}

// Reclaimer scans products or variants for metafields without a definition
// and deletes each such namespace:key across the whole store.
//
// After every successful delete the scan restarts from the first page: the
// cascade changes server state behind any cursor already handed out, so
// continuing from it could skip or revisit resources.
type Reclaimer struct {
	fetcher  PageFetcher
	registry DefinitionRegistry
	confirm  Confirmer
	opts     Options
	ledger   *Ledger
	out      io.Writer
}

// NewReclaimer builds a Reclaimer. Confirm may be nil when opts.Force is set.
func NewReclaimer(fetcher PageFetcher, registry DefinitionRegistry, confirm Confirmer, opts Options) *Reclaimer {
	if opts.ResourceType == "" {
		opts.ResourceType = Product
	}
	if opts.WarmUp == 0 {
		opts.WarmUp = ForceModeWarmUp
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	ledger := opts.Ledger
	if ledger == nil {
		ledger = NewLedger()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Reclaimer{
		fetcher:  fetcher,
		registry: registry,
		confirm:  confirm,
		opts:     opts,
		ledger:   ledger,
		out:      out,
	}
}

// Ledger exposes the keys deleted so far.
func (r *Reclaimer) Ledger() *Ledger { return r.ledger }

// Run drives the scan until every page has been visited without a deletion.
// A failed page fetch, an authentication failure or throttling ends the run
// with an error, as does a cancelled ctx; anything else that goes wrong while
// deleting one key is reported and the run moves on.
func (r *Reclaimer) Run(ctx context.Context) (summary Summary, err error) {
	rt := r.opts.ResourceType
	summary.ResourceType = rt

	if r.opts.Force {
		fmt.Fprintln(r.out, "\n⚠️  FORCE MODE ENABLED - All unstructured metafields will be deleted automatically!")
		fmt.Fprintln(r.out, "    This action cannot be undone. Press Ctrl+C to cancel.")
		r.opts.Sleep(r.opts.WarmUp)
	} else if r.confirm == nil {
		return summary, errors.New("interactive mode needs a confirmation prompt")
	}

	fmt.Fprintf(r.out, "\nScanning for %s with unstructured metafields...\n\n", rt.Plural())

	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		utils.Log.Debugf("Fetching batch of %s, cursor: %s", rt.Plural(), cursorLabel(cursor))

		page, err := r.fetcher.FetchPage(ctx, rt, cursor)
		if err != nil {
			return summary, fmt.Errorf("fetching %s: %w", rt.Plural(), err)
		}
		summary.Pages++

		if len(page.Resources) == 0 {
			fmt.Fprintf(r.out, "\n✅ No more %s to process.\n", rt.Plural())
			break
		}

		summary.Scanned += len(page.Resources)
		fmt.Fprintf(r.out, "\rScanned %d %s...", summary.Scanned, rt.Plural())

		resource, unstructured, found := firstUnstructured(page.Resources)
		if found {
			deleted, err := r.processResource(ctx, resource, unstructured, &summary)
			if err != nil {
				return summary, err
			}
			if deleted > 0 {
				cursor = ""
				summary.Scanned = 0
				summary.Restarts++
				fmt.Fprintln(r.out, "\nRestarting scan from beginning after deletion...")
				continue
			}
		}

		if !page.HasNextPage {
			fmt.Fprintf(r.out, "\n\n✅ Finished scanning all %s.\n", rt.Plural())
			break
		}
		cursor = page.EndCursor
	}

	return summary, nil
}

// firstUnstructured picks the first resource in page order that has at least
// one metafield without a definition. The rest of the page is ignored.
func firstUnstructured(resources []Resource) (Resource, []Metafield, bool) {
	for _, res := range resources {
		if mfs := res.Unstructured(); len(mfs) > 0 {
			return res, mfs, true
		}
	}
	return Resource{}, nil, false
}

func (r *Reclaimer) processResource(ctx context.Context, res Resource, unstructured []Metafield, summary *Summary) (int, error) {
	rt := r.opts.ResourceType
	fmt.Fprintf(r.out, "\n\nFound %d unstructured metafield(s) in %s: %q\n", len(unstructured), strings.ToLower(rt.Title()), res.DisplayTitle())

	deleted := 0
	for _, mf := range unstructured {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		key := mf.LedgerKey()
		if r.ledger.Has(key) {
			fmt.Fprintf(r.out, "  Skipping %s (already deleted)\n", key)
			continue
		}

		fmt.Fprintf(r.out, "\n%s\n", thinLine)
		fmt.Fprintf(r.out, "\nMetafield: %s\n", key)
		fmt.Fprintf(r.out, "Type: %s\n", mf.Type)
		fmt.Fprintf(r.out, "%s: %q (%s)\n", rt.Title(), res.DisplayTitle(), res.DisplayHandle())
		fmt.Fprintf(r.out, "Value: %s\n\n", mf.Preview())

		shouldDelete, err := r.decide(key)
		if err != nil {
			return deleted, err
		}
		if !shouldDelete {
			fmt.Fprintln(r.out, "Skipped.")
			summary.Skipped++
			continue
		}

		fmt.Fprintf(r.out, "\nDeleting all instances of %s...\n", key)
		if err := r.deleteEverywhere(ctx, mf); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return deleted, fmt.Errorf("deleting %s: %w", key, err)
			}
			info := apierr.ClassifyError(err, r.opts.Shop)
			if info.Fatal() {
				return deleted, fmt.Errorf("deleting %s: %w", key, info)
			}
			utils.Log.Errorf("Error processing %s: %v", key, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(r.out, "✓ Successfully deleted all instances of %s\n", key)
		r.ledger.Add(key)
		summary.Deleted++
		summary.DeletedKeys = append(summary.DeletedKeys, key)
		deleted++
	}
	return deleted, nil
}

func (r *Reclaimer) decide(key string) (bool, error) {
	if r.opts.Force {
		fmt.Fprintf(r.out, "🔥 Force mode: Automatically deleting %s\n", key)
		return true, nil
	}
	msg := fmt.Sprintf("Delete ALL instances of %s across ALL %s?", key, r.opts.ResourceType.Plural())
	ok, err := r.confirm.Confirm(msg, false)
	if err != nil {
		return false, fmt.Errorf("confirmation for %s: %w", key, err)
	}
	return ok, nil
}

// deleteEverywhere removes every instance of mf's namespace:key by deleting
// its definition with cascade, creating a temporary definition first when
// none exists.
func (r *Reclaimer) deleteEverywhere(ctx context.Context, mf Metafield) error {
	owner := r.opts.ResourceType.OwnerType()

	definitionID, err := r.registry.FindDefinition(ctx, mf.Namespace, mf.Key, owner)
	if err != nil {
		return fmt.Errorf("looking up definition: %w", err)
	}

	temporary := definitionID == ""
	if temporary {
		definitionID, err = r.registry.CreateDefinition(ctx, mf.Namespace, mf.Key, MapType(mf.Type), owner)
		if err != nil {
			return fmt.Errorf("creating definition: %w", err)
		}
		fmt.Fprintln(r.out, "Created temporary definition...")
	} else {
		fmt.Fprintln(r.out, "Found existing definition, will delete it along with all metafields...")
	}

	if err := r.registry.DeleteDefinition(ctx, definitionID, true); err != nil {
		return fmt.Errorf("deleting definition %s: %w", definitionID, err)
	}

	if r.opts.Journal != nil {
		d := Deletion{
			Shop:         r.opts.Shop,
			ResourceType: r.opts.ResourceType,
			Namespace:    mf.Namespace,
			Key:          mf.Key,
			Type:         mf.Type,
			DefinitionID: definitionID,
			Temporary:    temporary,
			DeletedAt:    time.Now().UTC(),
		}
		// A journal failure never fails a committed delete.
		if err := r.opts.Journal.RecordDeletion(context.WithoutCancel(ctx), d); err != nil {
			utils.Log.Warnf("Could not record deletion of %s in journal: %v", mf.LedgerKey(), err)
		}
	}
	return nil
}

// PrintSummary writes the end-of-run report.
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\n%s\n", thickLine)
	fmt.Fprintln(w, "\nSummary:")
	fmt.Fprintf(w, "- Scanned %d %s(s)\n", s.Scanned, strings.ToLower(s.ResourceType.Title()))
	fmt.Fprintf(w, "- Deleted %d metafield type(s)\n", s.Deleted)
	if s.Skipped > 0 {
		fmt.Fprintf(w, "- Skipped %d\n", s.Skipped)
	}
	if s.Failed > 0 {
		fmt.Fprintf(w, "- Failed %d\n", s.Failed)
	}

	if len(s.DeletedKeys) > 0 {
		fmt.Fprintln(w, "\nDeleted metafields:")
		for _, key := range s.DeletedKeys {
			fmt.Fprintf(w, "  - %s\n", key)
		}
	}
}

func cursorLabel(cursor string) string {
	if cursor == "" {
		return "start"
	}
	return cursor
}
