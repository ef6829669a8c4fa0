package storage

import "dealradar/models"

// ArtifactWriter publishes the per-run output files the static page reads.
type ArtifactWriter interface {
	WriteArtifacts(alerts, deals []*models.ScoredListing, summary *models.RunSummary) error
}

// StateStore persists the cross-run state used for alert deltas.
type StateStore interface {
	Load() (*models.RunState, error)
	Save(state *models.RunState) error
}
