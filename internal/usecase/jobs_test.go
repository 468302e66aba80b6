package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/resume-screener/internal/adapter/repo/memory"
	"github.com/fairyhunter13/resume-screener/internal/domain"
)

func TestJobService_Create(t *testing.T) {
	t.Parallel()
	svc := NewJobService(memory.NewJobRepo())

	id, err := svc.Create(context.Background(), "Acme", "Backend Engineer", "Build Go services.")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	job, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", job.Company)

	cases := []struct {
		name                        string
		company, title, description string
	}{
		{name: "blank company", title: "T", description: "D"},
		{name: "blank title", company: "C", description: "D"},
		{name: "blank description", company: "C", title: "T"},
		{name: "whitespace only", company: "  ", title: "T", description: "D"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Create(context.Background(), tc.company, tc.title, tc.description)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestJobService_List(t *testing.T) {
	t.Parallel()
	svc := NewJobService(memory.NewJobRepo())
	for _, title := range []string{"One", "Two"} {
		_, err := svc.Create(context.Background(), "Acme", title, "desc")
		require.NoError(t, err)
	}
	jobs, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}
