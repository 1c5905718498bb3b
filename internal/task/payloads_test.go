package task

import (
	"testing"

	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestScrapeRequestValidate(t *testing.T) {
	q := &domain.JobQuery{SearchTerm: "go"}

	assert.NoError(t, ScrapeRequest{Query: q}.Validate())
	assert.NoError(t, ScrapeRequest{Source: "scholars4dev-masters"}.Validate())
	assert.Error(t, ScrapeRequest{}.Validate())
	assert.Error(t, ScrapeRequest{Query: q, Source: "x"}.Validate())
}

func TestEmailPayloadValidate(t *testing.T) {
	jobs := []domain.Job{{JobTitle: "Engineer", JobDescription: "Build"}}
	items := []domain.Scholarship{{Content: "Funded"}}

	tests := []struct {
		name    string
		payload EmailPayload
		wantErr bool
	}{
		{name: "welcome", payload: EmailPayload{Kind: EmailWelcome, To: "a@example.com"}},
		{name: "welcome without recipient", payload: EmailPayload{Kind: EmailWelcome}, wantErr: true},
		{name: "jobs", payload: EmailPayload{Kind: EmailJobs, To: "a@example.com", Jobs: jobs}},
		{name: "jobs without jobs", payload: EmailPayload{Kind: EmailJobs, To: "a@example.com"}, wantErr: true},
		{
			name:    "scholarships",
			payload: EmailPayload{Kind: EmailScholarships, Recipients: []string{"a@example.com"}, Scholarships: items},
		},
		{name: "scholarships without recipients", payload: EmailPayload{Kind: EmailScholarships, Scholarships: items}, wantErr: true},
		{name: "unknown kind", payload: EmailPayload{Kind: "sms", To: "a@example.com"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.payload.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDBOperationValidate(t *testing.T) {
	id := "8d3c5f3e-6c4b-4bda-9d3b-2f5a0e1c7a10"
	data := []byte(`{"title":"x"}`)

	tests := []struct {
		name    string
		op      DBOperation
		wantErr bool
	}{
		{name: "insert", op: DBOperation{Collection: "jobs", Operation: OpInsert, Data: data}},
		{name: "insert without data", op: DBOperation{Collection: "jobs", Operation: OpInsert}, wantErr: true},
		{name: "upsert", op: DBOperation{Collection: "users", Operation: OpUpsert, Data: data}},
		{name: "update", op: DBOperation{Collection: "jobs", Operation: OpUpdate, DocumentID: id, Data: data}},
		{name: "update without data", op: DBOperation{Collection: "jobs", Operation: OpUpdate, DocumentID: id}, wantErr: true},
		{name: "delete", op: DBOperation{Collection: "jobs", Operation: OpDelete, DocumentID: id}},
		{name: "delete with bad id", op: DBOperation{Collection: "jobs", Operation: OpDelete, DocumentID: "42"}, wantErr: true},
		{name: "missing collection", op: DBOperation{Operation: OpInsert, Data: data}, wantErr: true},
		{name: "unknown operation", op: DBOperation{Collection: "jobs", Operation: "merge"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.op.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
