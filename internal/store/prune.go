package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/containerd/log"
)

// PruneOptions bounds what the store keeps.
type PruneOptions struct {
	// MaxSize is the capacity in bytes. Zero disables the limit.
	MaxSize int64

	// MaxAge expires entries written longer ago than this. Zero disables expiry.
	MaxAge time.Duration

	DryRun bool
}

// PruneResult lists evicted entries and what remains.
type PruneResult struct {
	Expired   []Entry
	Evicted   []Entry
	Remaining int64
}

// Prune expires old entries, then evicts least-recently-used entries until
// the store fits within MaxSize.
func (d *Dir) Prune(ctx context.Context, opts PruneOptions) (*PruneResult, error) {
	entries, err := d.Entries()
	if err != nil {
		return nil, err
	}

	result := &PruneResult{}
	now := d.now()

	var live []Entry
	for _, e := range entries {
		if opts.MaxAge > 0 && now.Sub(e.Created) > opts.MaxAge {
			result.Expired = append(result.Expired, e)
			continue
		}
		live = append(live, e)
	}

	var total int64
	for _, e := range live {
		total += e.Size
	}

	if opts.MaxSize > 0 && total > opts.MaxSize {
		sort.SliceStable(live, func(i, j int) bool {
			if !live[i].Accessed.Equal(live[j].Accessed) {
				return live[i].Accessed.Before(live[j].Accessed)
			}
			return live[i].Key < live[j].Key
		})
		n := 0
		for n < len(live) && total > opts.MaxSize {
			result.Evicted = append(result.Evicted, live[n])
			total -= live[n].Size
			n++
		}
	}
	result.Remaining = total

	if opts.DryRun {
		return result, nil
	}

	for _, group := range [][]Entry{result.Expired, result.Evicted} {
		for _, e := range group {
			if err := d.Remove(e.Key); err != nil {
				return result, fmt.Errorf("pruning: %w", err)
			}
			log.G(ctx).WithField("key", e.Key).Debug("pruned cache entry")
		}
	}
	return result, nil
}
