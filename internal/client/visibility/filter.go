// Package visibility decides which remote participants a viewer may see and
// keeps track subscriptions in line with that decision.
//
// Classification is purely local: it reads the metadata each participant
// published with its join credential and never asks the server.
package visibility

import "github.com/dmitrijs2005/roomkeeper/internal/participant"

// Viewer is the local participant's own identity as far as the policy is
// concerned.
type Viewer struct {
	Gender string
	IsHost bool
}

// ViewerFromMetadata builds a Viewer from the local participant's metadata.
// Unparsable metadata yields a viewer with no gender, who sees only hosts,
// spotlighted and unclassified participants.
func ViewerFromMetadata(raw string) Viewer {
	p := participant.Parse(raw)
	if !p.OK {
		return Viewer{}
	}
	return Viewer{Gender: p.Metadata.Gender, IsHost: p.Metadata.IsHost}
}

func (v Viewer) seesMen() bool {
	return v.Gender == participant.GenderMale || v.Gender == participant.GenderHost || v.IsHost
}

// Decide reports whether viewer may see a remote participant with the given
// metadata. Rules are checked in order and the first match wins.
func Decide(viewer Viewer, remote participant.Parsed) bool {
	if !remote.OK {
		return true
	}
	m := remote.Metadata
	switch {
	case m.IsHost:
		return true
	case m.IsSpotlighted:
		return true
	case m.Gender == participant.GenderMale:
		return viewer.seesMen()
	case m.Gender == participant.GenderFemale:
		return viewer.Gender == participant.GenderFemale
	default:
		return false
	}
}

// Visible is Decide over the raw metadata blob.
func Visible(viewer Viewer, metadata string) bool {
	return Decide(viewer, participant.Parse(metadata))
}
