package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// JobState is the lifecycle state of a push job
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobError     JobState = "error"
)

// IsTerminal reports whether no further transitions are possible
func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobError
}

// RowStatus is the outcome of a single row
type RowStatus string

const (
	RowPending RowStatus = "Pending"
	RowSkipped RowStatus = "Skipped"
	RowSuccess RowStatus = "Success"
	RowError   RowStatus = "Error"
)

// Row maps display-field names to edited values. Reference fields may carry a
// companion "<Field>_InternalId" key holding the remote id.
type Row map[string]string

// UnmarshalJSON accepts any JSON scalar as a cell value. Numbers keep their
// literal text, booleans become "true"/"false" and null becomes "".
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var cells map[string]interface{}
	if err := dec.Decode(&cells); err != nil {
		return err
	}
	if cells == nil {
		*r = nil
		return nil
	}

	row := make(Row, len(cells))
	for name, value := range cells {
		switch v := value.(type) {
		case nil:
			row[name] = ""
		case string:
			row[name] = v
		case json.Number:
			row[name] = v.String()
		case bool:
			row[name] = strconv.FormatBool(v)
		default:
			return fmt.Errorf("cell %q must be a string, number, boolean or null", name)
		}
	}
	*r = row
	return nil
}

// InternalIDSuffix marks the companion key of a reference field
const InternalIDSuffix = "_InternalId"

// PriceUpdate records the handling of one price-tier field
type PriceUpdate struct {
	Field     string      `json:"field" bson:"field"`
	Tier      string      `json:"tier" bson:"tier"`
	Desired   float64     `json:"desired" bson:"desired"`
	Current   interface{} `json:"current,omitempty" bson:"current,omitempty"`
	Unchanged bool        `json:"unchanged" bson:"unchanged"`
	Response  interface{} `json:"response,omitempty" bson:"response,omitempty"`
	Error     string      `json:"error,omitempty" bson:"error,omitempty"`
}

// RowResponse holds the raw remote responses for a row
type RowResponse struct {
	Primary interface{}   `json:"primary,omitempty" bson:"primary,omitempty"`
	Prices  []PriceUpdate `json:"prices" bson:"prices"`
	Error   string        `json:"error,omitempty" bson:"error,omitempty"`
}

// RowResult is the recorded outcome of one row
type RowResult struct {
	Row      int         `json:"row" bson:"row"`
	ItemID   string      `json:"itemId" bson:"item_id"`
	Status   RowStatus   `json:"status" bson:"status"`
	Reason   string      `json:"reason,omitempty" bson:"reason,omitempty"`
	Response RowResponse `json:"response" bson:"response"`
}

// Job is one batch push request.
//
// Rows, User, Environment and EnvConfig are fixed at enqueue time. EnvConfig
// holds credentials and is never serialized.
type Job struct {
	ID          string      `json:"id" bson:"_id"`
	Status      JobState    `json:"status" bson:"status"`
	Rows        []Row       `json:"-" bson:"rows"`
	Processed   int         `json:"processed" bson:"processed"`
	Total       int         `json:"total" bson:"total"`
	Results     []RowResult `json:"results" bson:"results"`
	User        string      `json:"user" bson:"user"`
	Environment string      `json:"environment" bson:"environment"`
	EnvConfig   EnvConfig   `json:"-" bson:"-"`
	Error       string      `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt   time.Time   `json:"createdAt" bson:"created_at"`
	StartedAt   *time.Time  `json:"startedAt,omitempty" bson:"started_at,omitempty"`
	FinishedAt  *time.Time  `json:"finishedAt,omitempty" bson:"finished_at,omitempty"`
}

// NewJob builds a pending job for the given rows and authorization context
func NewJob(id string, rows []Row, auth AuthContext, now time.Time) *Job {
	copied := make([]Row, len(rows))
	for i, row := range rows {
		copied[i] = row.clone()
	}

	return &Job{
		ID:          id,
		Status:      JobPending,
		Rows:        copied,
		Total:       len(copied),
		Results:     make([]RowResult, 0, len(copied)),
		User:        auth.User,
		Environment: auth.Environment,
		EnvConfig:   auth.Env,
		CreatedAt:   now.UTC(),
	}
}

// Clone returns a deep copy safe to hand out to readers
func (j *Job) Clone() *Job {
	c := *j
	c.Rows = make([]Row, len(j.Rows))
	for i, row := range j.Rows {
		c.Rows[i] = row.clone()
	}
	c.Results = make([]RowResult, len(j.Results))
	for i, res := range j.Results {
		res.Response.Prices = append([]PriceUpdate(nil), res.Response.Prices...)
		c.Results[i] = res
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}

// Summary counts row outcomes
func (j *Job) Summary() JobSummary {
	s := JobSummary{}
	for _, res := range j.Results {
		switch res.Status {
		case RowSuccess:
			s.Succeeded++
		case RowSkipped:
			s.Skipped++
		case RowError:
			s.Failed++
		}
	}
	return s
}

func (r Row) clone() Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// JobSummary aggregates row outcomes for the browser
type JobSummary struct {
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// JobSnapshot is a job as seen by a status poll, with its live queue position
type JobSnapshot struct {
	*Job
	Summary    JobSummary `json:"summary"`
	QueuePos   int        `json:"queuePos"`
	QueueTotal int        `json:"queueTotal"`
}

// JobFilter narrows job listings
type JobFilter struct {
	Status JobState
	User   string
}

// JobListItem is the list representation of a job
type JobListItem struct {
	ID          string     `json:"id"`
	Status      JobState   `json:"status"`
	User        string     `json:"user"`
	Environment string     `json:"environment"`
	Processed   int        `json:"processed"`
	Total       int        `json:"total"`
	Summary     JobSummary `json:"summary"`
	CreatedAt   string     `json:"createdAt"`
	FinishedAt  string     `json:"finishedAt,omitempty"`
}

// ToListItem converts Job to JobListItem
func (j *Job) ToListItem() JobListItem {
	var finishedAt string
	if j.FinishedAt != nil {
		finishedAt = j.FinishedAt.Format(time.RFC3339)
	}

	return JobListItem{
		ID:          j.ID,
		Status:      j.Status,
		User:        j.User,
		Environment: j.Environment,
		Processed:   j.Processed,
		Total:       j.Total,
		Summary:     j.Summary(),
		CreatedAt:   j.CreatedAt.Format(time.RFC3339),
		FinishedAt:  finishedAt,
	}
}
