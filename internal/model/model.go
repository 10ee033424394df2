package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Match{},
	&Sample{},
	&AnalysisRun{},
}

// Run kinds
const (
	RunKindHeatmap = "heatmap"
	RunKindZones   = "zones"
)

// Match is one imported trajectory
type Match struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt  time.Time `json:"createdAt"`
	Name       string    `json:"name" gorm:"size:255;index:idx_match_name"`
	FrameCount uint      `json:"frameCount"` // frames, including empty ones
	Entities   uint      `json:"entities"`   // distinct entity ids
}

func (*Match) TableName() string {
	return "matches"
}

// Sample is one entity record in one frame. X and Y are NULL when the entity
// was not localised in that frame.
type Sample struct {
	ID       uint            `json:"id" gorm:"primarykey;autoIncrement;"`
	MatchID  uint            `json:"matchId" gorm:"index:idx_sample_match_frame,priority:1"`
	Match    Match           `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	Frame    uint            `json:"frame" gorm:"index:idx_sample_match_frame,priority:2"`
	EntityID int             `json:"entityId" gorm:"index:idx_sample_entity"`
	X        sql.NullFloat64 `json:"x"`
	Y        sql.NullFloat64 `json:"y"`
}

func (*Sample) TableName() string {
	return "samples"
}

// AnalysisRun records the parameters and result of one heatmap or zone pass
type AnalysisRun struct {
	ID        string         `json:"id" gorm:"primarykey;size:36"` // uuid
	CreatedAt time.Time      `json:"createdAt"`
	MatchID   uint           `json:"matchId" gorm:"index:idx_run_match_id"` // 0 when the input was not stored
	Kind      string         `json:"kind" gorm:"size:16"`                   // heatmap | zones
	EntityID  sql.NullInt64  `json:"entityId"`                              // NULL for all entities
	Samples   int            `json:"samples"`                               // localised samples counted
	Skipped   int            `json:"skipped"`                               // records without a position
	Params    datatypes.JSON `json:"params"`
	Result    datatypes.JSON `json:"result"`
}

func (*AnalysisRun) TableName() string {
	return "analysis_runs"
}
