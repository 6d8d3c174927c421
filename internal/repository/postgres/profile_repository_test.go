package postgres

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/vecmath"
)

func TestBuildCandidateQuery_Minimal(t *testing.T) {
	query, args := buildCandidateQuery(&domain.CandidateFilter{})
	assert.NotContains(t, query, "$1")
	assert.Empty(t, args)
	assert.True(t, strings.HasSuffix(query, "ORDER BY p.user_id"))
}

func TestBuildCandidateQuery_AllFilters(t *testing.T) {
	minAge, maxAge := 20, 30
	dist := 50.0
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	query, args := buildCandidateQuery(&domain.CandidateFilter{
		ExcludeUserID:   "seed",
		ClientID:        "client-a",
		Scope:           domain.ScopeMatching,
		Genders:         []domain.Gender{domain.GenderFemale},
		MinAge:          &minAge,
		MaxAge:          &maxAge,
		Reference:       &domain.GeoPoint{Lat: 55.75, Lon: 37.62},
		MaxDistanceKm:   &dist,
		RequireComplete: true,
		Now:             now,
	})

	assert.Contains(t, query, "p.user_id <> $1")
	assert.Contains(t, query, "cg.client_id = $2")
	assert.Contains(t, query, "$3 = ANY(cg.scopes)")
	assert.Contains(t, query, "p.behavioral_embedding IS NOT NULL")
	assert.Contains(t, query, "u.gender = ANY($4)")
	assert.Contains(t, query, "u.birth_date <= $5")
	assert.Contains(t, query, "u.birth_date > $6")
	assert.Contains(t, query, "u.location_lat IS NULL OR u.location_lon IS NULL")
	require.Len(t, args, 10)

	assert.Equal(t, "seed", args[0])
	assert.Equal(t, "client-a", args[1])
	assert.Equal(t, domain.ScopeMatching, args[2])
	assert.Equal(t, pq.Array([]string{"female"}), args[3])
	assert.Equal(t, time.Date(2005, 6, 15, 0, 0, 0, 0, time.UTC), args[4])
	assert.Equal(t, time.Date(1994, 6, 15, 0, 0, 0, 0, time.UTC), args[5])

	minLat, maxLat, minLon, maxLon := vecmath.BoundingBox(55.75, 37.62, dist)
	assert.Equal(t, []interface{}{minLat, maxLat, minLon, maxLon}, args[6:10])
	assert.Less(t, minLat, 55.75)
	assert.Greater(t, maxLat, 55.75)
}

func TestBuildCandidateQuery_DefaultsScope(t *testing.T) {
	_, args := buildCandidateQuery(&domain.CandidateFilter{ClientID: "c"})
	require.Len(t, args, 2)
	assert.Equal(t, domain.ScopeMatching, args[1])
}

func TestCandidateRow_ToDomain(t *testing.T) {
	gender := "male"
	lat, lon := 1.0, 2.0
	row := candidateRow{
		UserID:                 "u1",
		Gender:                 &gender,
		LocationLat:            &lat,
		LocationLon:            &lon,
		PsychologicalEmbedding: vecmath.EncodeEmbedding([]float32{1, 0}),
		ValuesEmbedding:        vecmath.EncodeEmbedding([]float32{0, 1}),
	}

	c, err := row.toDomain()
	require.NoError(t, err)
	assert.Equal(t, domain.GenderMale, *c.Gender)
	assert.Equal(t, &domain.GeoPoint{Lat: 1, Lon: 2}, c.Location)
	assert.Equal(t, []float32{1, 0}, c.Embeddings[domain.AxisPsychological])
	assert.Nil(t, c.Embeddings[domain.AxisInterests])
	assert.False(t, c.Embeddings.Complete())
}

func TestCandidateRow_HalfLocationIsDropped(t *testing.T) {
	lat := 1.0
	row := candidateRow{UserID: "u1", LocationLat: &lat}
	c, err := row.toDomain()
	require.NoError(t, err)
	assert.Nil(t, c.Location)
}

func TestCandidateRow_CorruptEmbedding(t *testing.T) {
	row := candidateRow{UserID: "u1", ValuesEmbedding: []byte{1, 2, 3}}
	_, err := row.toDomain()
	require.Error(t, err)
}

func TestMapWriteError(t *testing.T) {
	err := mapWriteError(&pq.Error{Code: "23503", Detail: "Key (user_id) is not present"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	other := errors.New("boom")
	assert.Equal(t, other, mapWriteError(other))
}
