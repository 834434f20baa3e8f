package visibility

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/roomkeeper/internal/logging"
)

// TrackPublication is a remote track the client may subscribe to. Media SDK
// publications satisfy it through a thin adapter.
type TrackPublication interface {
	SetSubscribed(bool)
	IsSubscribed() bool
}

// Participant is one entry of the room roster.
type Participant struct {
	Identity string
	Metadata string
	IsLocal  bool
	Tracks   []TrackPublication
}

// Result counts the subscription changes made by one Reconcile pass.
type Result struct {
	Subscribed   int
	Unsubscribed int
	Unchanged    int
}

// Reconciler applies the visibility policy to a roster. It is meant to be
// called from every roster or metadata change event; calling it again with
// the same roster changes nothing.
type Reconciler struct {
	mu     sync.Mutex
	viewer Viewer
	log    logging.Logger
}

func NewReconciler(viewer Viewer, log logging.Logger) *Reconciler {
	return &Reconciler{viewer: viewer, log: log.With("module", "visibility")}
}

// SetViewer replaces the local viewer, e.g. after the local participant's
// own metadata changed. The next Reconcile uses it.
func (r *Reconciler) SetViewer(v Viewer) {
	r.mu.Lock()
	r.viewer = v
	r.mu.Unlock()
}

func (r *Reconciler) Viewer() Viewer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewer
}

// Reconcile subscribes the tracks of every visible remote participant and
// tears down the tracks of everyone else. Publications already in the wanted
// state are left alone.
func (r *Reconciler) Reconcile(ctx context.Context, roster []Participant) Result {
	viewer := r.Viewer()

	var res Result
	for _, p := range roster {
		if p.IsLocal {
			continue
		}
		want := Visible(viewer, p.Metadata)
		for _, t := range p.Tracks {
			if t == nil {
				continue
			}
			if t.IsSubscribed() == want {
				res.Unchanged++
				continue
			}
			t.SetSubscribed(want)
			if want {
				res.Subscribed++
			} else {
				res.Unsubscribed++
			}
		}
	}

	if res.Subscribed+res.Unsubscribed > 0 {
		r.log.Debug(ctx, "subscriptions reconciled",
			"subscribed", res.Subscribed, "unsubscribed", res.Unsubscribed)
	}
	return res
}

// VisibleParticipants returns the roster entries the viewer may see, in
// roster order. The local participant is always included.
func VisibleParticipants(viewer Viewer, roster []Participant) []Participant {
	out := make([]Participant, 0, len(roster))
	for _, p := range roster {
		if p.IsLocal || Visible(viewer, p.Metadata) {
			out = append(out, p)
		}
	}
	return out
}
