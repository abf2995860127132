package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/memoir/internal/store"
)

func TestParse(t *testing.T) {
	input := "\ufeff가장 기억에 남는 여행은?,extra\n" +
		"\n" +
		"nan\n" +
		"NULL,x\n" +
		"  어릴 적 살던 집은 어땠나요?  \n" +
		"\"첫 직장, 첫 월급으로 무엇을 했나요?\"\n"

	got, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"가장 기억에 남는 여행은?",
		"어릴 적 살던 집은 어땠나요?",
		"첫 직장, 첫 월급으로 무엇을 했나요?",
	}, got)
}

func TestParseEmpty(t *testing.T) {
	got, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestImport(t *testing.T) {
	st, err := store.OpenMemory()
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	require.NoError(t, st.Repo().AddQuestion(ctx, &store.Question{Text: "q1"}))

	res, err := Import(ctx, st, []string{"q1", "q2", "q3", "q2"})
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 2, Skipped: 2}, res)

	qs, err := st.Repo().GetQuestions(ctx, store.QuestionFilter{})
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, "q2", qs[1].Text)
	assert.Equal(t, store.QuestionActive, qs[2].Status)
}
