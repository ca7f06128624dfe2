package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oarkflow/segtag/nlp/dataset"
	"github.com/oarkflow/segtag/nlp/export"
	"github.com/oarkflow/segtag/nlp/store"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestUsage(t *testing.T) {
	_, stderr, err := runCLI(t, "")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr, "usage: segtag")

	_, _, err = runCLI(t, "", "frobnicate")
	assert.ErrorIs(t, err, errUsage)
}

func TestAnalyzeArgs(t *testing.T) {
	stdout, _, err := runCLI(t, "", "analyze", "unhappy", "running")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"root":"happy"`)
	assert.Contains(t, lines[1], `"root":"runn"`)
}

func TestAnalyzeStdin(t *testing.T) {
	stdout, _, err := runCLI(t, "Reactivating the ageing engines.\n", "analyze")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"word":"reactivating"`)
	assert.Contains(t, lines[2], `"repair":"applied"`)
}

func TestDatasetValidateVocab(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "words.jsonl")
	db := filepath.Join(dir, "segtag.db")

	_, stderr, err := runCLI(t, "running unhappy\nreactivating un\n", "dataset", "-out", out, "-db", db)
	require.NoError(t, err)
	assert.Contains(t, stderr, "wrote 4 records")

	stdout, _, err := runCLI(t, "", "validate", "-in", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "4 valid, 0 invalid")

	stdout, _, err = runCLI(t, "", "vocab", "-in", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"<PAD>":0`)
	assert.Contains(t, stdout, `"<UNK>":1`)
	assert.Contains(t, stdout, `"a":2`)

	stdout, _, err = runCLI(t, "", "vocab", "-in", out, "-kind", "affix")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ing":0,"re":1,"un":2}`, stdout)

	stdout, _, err = runCLI(t, "", "vocab", "-in", out, "-kind", "label")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"I-SUFFIX":6`)

	st, err := store.Open("sqlite", db)
	require.NoError(t, err)
	defer st.Close()
	rec, err := st.Get("unhappy")
	require.NoError(t, err)
	assert.Equal(t, "happy", rec.Root)
}

func TestDatasetStopwords(t *testing.T) {
	stdout, stderr, err := runCLI(t, "the unhappy end of the running", "dataset", "-stopwords", "english")
	require.NoError(t, err)
	assert.Contains(t, stderr, "wrote 3 records")
	assert.NotContains(t, stdout, `"word":"the"`)
}

func TestDatasetMsgPack(t *testing.T) {
	out := filepath.Join(t.TempDir(), "words.msgpack")
	_, _, err := runCLI(t, "running unhappy", "dataset", "-out", out, "-format", "msgpack")
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	r, err := dataset.NewReader(f, export.MsgPack)
	require.NoError(t, err)
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "running", records[0].Word)

	stdout, _, err := runCLI(t, "", "validate", "-in", out, "-format", "msgpack")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 valid")
}

func TestValidateReportsBadRecords(t *testing.T) {
	bad := `{"word":"run","labels":["B-ROOT","I-ROOT"],"morphemes":[{"type":"root","text":"run","start":0,"end":3}]}` + "\n" +
		`{"word":"run","labels":["B-ROOT","I-ROOT","I-ROOT"],"morphemes":[{"type":"root","text":"run","start":0,"end":3}]}` + "\n"
	stdout, _, err := runCLI(t, bad, "validate")
	assert.Error(t, err)
	assert.Contains(t, stdout, "record 1:")
	assert.Contains(t, stdout, "1 valid, 1 invalid")
}

func TestDatasetUnknownFormat(t *testing.T) {
	_, _, err := runCLI(t, "", "dataset", "-format", "csv")
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}
