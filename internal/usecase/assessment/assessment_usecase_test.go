package assessment

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/repository/memory"
)

// textEmbedder derives a vector from the text so that changed answers
// produce changed embeddings.
type textEmbedder struct {
	calls int
	err   error
	texts [][]string
}

func (e *textEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	e.texts = append(e.texts, texts)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

type fixture struct {
	store    *memory.Store
	embedder *textEmbedder
	uc       *AssessmentUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutUser(&domain.User{ID: "u1"})
	embedder := &textEmbedder{}
	uc := NewAssessmentUseCase(
		testQuestionnaire(),
		memory.NewProfileRepository(store),
		memory.NewAssessmentRepository(store),
		embedder,
		nil,
		nil,
	)
	return &fixture{store: store, embedder: embedder, uc: uc}
}

func TestSubmit_PersistsCompleteProfile(t *testing.T) {
	f := newFixture(t)

	res, err := f.uc.Submit(context.Background(), "u1", domain.Answers{"p1": domain.ScaleAnswer(1)})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.ProfileComplete)

	require.Len(t, f.embedder.texts, 1)
	assert.Equal(t, []string{"one.", ".", ".", "."}, f.embedder.texts[0])

	p, err := memory.NewProfileRepository(f.store).GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, p.IsComplete())
	assert.Equal(t, "one.", *p.PsychologicalDesc)
	assert.Equal(t, 1.0, p.AssessmentVersion)

	stored, err := memory.NewAssessmentRepository(f.store).GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, *stored.Answers["p1"].Scale)
}

func TestSubmit_InvalidAnswersSkipEmbedding(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Submit(context.Background(), "u1", domain.Answers{"unknown": domain.ScaleAnswer(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidAnswers)
	assert.Equal(t, 0, f.embedder.calls)
}

func TestSubmit_EmbeddingFailurePersistsNothing(t *testing.T) {
	f := newFixture(t)
	f.embedder.err = fmt.Errorf("%w: provider down", domain.ErrEmbeddingProvider)

	_, err := f.uc.Submit(context.Background(), "u1", domain.Answers{"p1": domain.ScaleAnswer(1)})
	assert.ErrorIs(t, err, domain.ErrEmbeddingProvider)

	_, err = memory.NewProfileRepository(f.store).GetByUserID(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	_, err = memory.NewAssessmentRepository(f.store).GetByUserID(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrAnswersNotFound)
}

func TestSubmit_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Submit(context.Background(), "ghost", domain.Answers{"p1": domain.ScaleAnswer(1)})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSubmit_ResubmissionReplacesEmbeddings(t *testing.T) {
	f := newFixture(t)
	profiles := memory.NewProfileRepository(f.store)

	_, err := f.uc.Submit(context.Background(), "u1", domain.Answers{"p1": domain.ScaleAnswer(1), "v1": domain.ScaleAnswer(1)})
	require.NoError(t, err)
	before, err := profiles.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)

	_, err = f.uc.Submit(context.Background(), "u1", domain.Answers{"p2": domain.TextAnswer("adventurous")})
	require.NoError(t, err)
	after, err := profiles.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "I am adventurous.", *after.PsychologicalDesc)
	assert.Equal(t, ".", *after.ValuesDesc)
	assert.NotEqual(t, before.Embeddings[domain.AxisPsychological], after.Embeddings[domain.AxisPsychological])
	assert.Equal(t, []float32{1, 1}, after.Embeddings[domain.AxisValues])

	stored, err := memory.NewAssessmentRepository(f.store).GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	_, hasOld := stored.Answers["p1"]
	assert.False(t, hasOld)
}

func TestRegenerate_RebuildsFromStoredAnswers(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Submit(context.Background(), "u1", domain.Answers{"p1": domain.ScaleAnswer(3)})
	require.NoError(t, err)

	res, err := f.uc.Regenerate(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, res.ProfileComplete)
	require.Len(t, f.embedder.texts, 2)
	assert.Equal(t, f.embedder.texts[0], f.embedder.texts[1])

	_, err = f.uc.Regenerate(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrAnswersNotFound)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)

	st, err := f.uc.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, st.ProfileComplete)
	assert.Nil(t, st.UpdatedAt)

	_, err = f.uc.Submit(context.Background(), "u1", domain.Answers{"p1": domain.ScaleAnswer(3)})
	require.NoError(t, err)

	st, err = f.uc.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, st.ProfileComplete)
	assert.Equal(t, 1.0, st.AssessmentVersion)
	assert.NotNil(t, st.UpdatedAt)
}
