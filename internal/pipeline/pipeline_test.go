package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grimmgraph/grimm/internal/config"
	"github.com/grimmgraph/grimm/internal/diagnostics"
	"github.com/grimmgraph/grimm/internal/entry"
	"github.com/grimmgraph/grimm/internal/serialize"
)

const testLangRef = "" +
	"en\tEnglish\tgem\tenm,ang,gem-pro,ine-pro\tregular\tLatn\t\n" +
	"enm\tMiddle English\tgem\tang,gem-pro,ine-pro\tregular\tLatn\t\n" +
	"ang\tOld English\tgem\tgem-pro,ine-pro\tregular\tLatn\t\n" +
	"gem-pro\tProto-Germanic\tgem\tine-pro\treconstructed\t\t\n" +
	"ine-pro\tProto-Indo-European\tine\t\treconstructed\t\t\n"

func newTestPipeline(t *testing.T, dumpLines []string) (*Pipeline, Result) {
	t.Helper()
	dir := t.TempDir()

	langPath := filepath.Join(dir, "langref.tsv")
	require.NoError(t, os.WriteFile(langPath, []byte(testLangRef), 0o644))

	dumpPath := filepath.Join(dir, "dump.jsonl")
	require.NoError(t, os.WriteFile(dumpPath, []byte(strings.Join(dumpLines, "\n")+"\n"), 0o644))

	cfg := config.Config{
		InputPath:           dumpPath,
		SerializationPath:   filepath.Join(dir, "out.json"),
		EmbeddingsModel:     "hashing-test",
		EmbeddingsBatchSize: 8,
		EmbeddingsCacheDir:  ":memory:",
		LangReferencePath:   langPath,
	}

	p, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	result, err := p.Run()
	require.NoError(t, err)
	return p, result
}

// TestE1InheritanceChainWithRedirect exercises spec E1: a four-step
// ancestry chain terminating in a redirect target, not the redirect
// source.
func TestE1InheritanceChainWithRedirect(t *testing.T) {
	lines := []string{
		`{"lang_code":"en","word":"glow","pos":"verb","senses":[{"glosses":["to shine steadily"]}],"etymology_templates":[{"name":"inherited","args":{"1":"en","2":"enm","3":"glowen"}}]}`,
		`{"lang_code":"enm","word":"glowen","pos":"verb","senses":[{"glosses":["to glow"]}],"etymology_templates":[{"name":"inherited","args":{"1":"enm","2":"ang","3":"glowan"}}]}`,
		`{"lang_code":"ang","word":"glowan","pos":"verb","senses":[{"glosses":["to glow"]}],"etymology_templates":[{"name":"inherited","args":{"1":"ang","2":"gem-pro","3":"gloana"}}]}`,
		`{"lang_code":"gem-pro","word":"*gloana","pos":"verb","senses":[{"glosses":["to glow"]}],"etymology_templates":[{"name":"derived","args":{"1":"gem-pro","2":"ine-pro","3":"ghel"}}]}`,
		`{"word":"ghel","redirect":"ghelh3"}`,
		`{"lang_code":"ine-pro","word":"ghelh3","pos":"root","senses":[{"glosses":["to shine"]}]}`,
	}
	p, result := newTestPipeline(t, lines)

	assert.Len(t, result.Envelope.Items, 5)
	assert.Len(t, result.Envelope.Edges, 4)
	assert.Equal(t, 5, p.Store().Len())

	terms := p.Terms()
	ghelh3ID, ok := terms.Lookup("ghelh3")
	require.True(t, ok)
	var root *serialize.Item
	for i := range result.Envelope.Items {
		if result.Envelope.Items[i].Term == ghelh3ID {
			root = &result.Envelope.Items[i]
		}
	}
	require.NotNil(t, root, "expected an item for the redirect target")

	var rootEdge *serialize.Edge
	for i := range result.Envelope.Edges {
		if result.Envelope.Edges[i].To == root.ID {
			rootEdge = &result.Envelope.Edges[i]
		}
	}
	require.NotNil(t, rootEdge, "expected the final ancestry edge to land on the redirect target")
}

// TestE2CompositionalPrefixOrdering exercises spec E2: a two-component
// prefix template preserves hyphens and order-index.
func TestE2CompositionalPrefixOrdering(t *testing.T) {
	lines := []string{
		`{"lang_code":"en","word":"redo","pos":"verb","senses":[{"glosses":["to do again"]}],"etymology_templates":[{"name":"prefix","args":{"1":"en","2":"re-","3":"do"}}]}`,
	}
	p, result := newTestPipeline(t, lines)

	assert.Len(t, result.Envelope.Edges, 2)
	byOrder := map[int]serialize.Edge{}
	for _, e := range result.Envelope.Edges {
		byOrder[e.Order] = e
		assert.Equal(t, "prefix", e.Mode)
	}
	require.Contains(t, byOrder, 0)
	require.Contains(t, byOrder, 1)

	terms := p.Terms()
	var termOf = func(id int32) string {
		for _, it := range result.Envelope.Items {
			if int32(it.ID) == id {
				return terms.Resolve(it.Term)
			}
		}
		return ""
	}
	assert.Equal(t, "re-", termOf(int32(byOrder[0].To)))
	assert.Equal(t, "do", termOf(int32(byOrder[1].To)))
}

// TestE3ConfixThreeTermOrdering exercises spec E3: a three-component
// confix preserves left-to-right order and both hyphen conventions.
func TestE3ConfixThreeTermOrdering(t *testing.T) {
	lines := []string{
		`{"lang_code":"en","word":"bedewed","pos":"adjective","senses":[{"glosses":["covered in dew"]}],"etymology_templates":[{"name":"confix","args":{"1":"en","2":"be-","3":"dew","4":"-ed"}}]}`,
	}
	p, result := newTestPipeline(t, lines)

	assert.Len(t, result.Envelope.Edges, 3)
	terms := p.Terms()
	var termOf = func(id int32) string {
		for _, it := range result.Envelope.Items {
			if int32(it.ID) == id {
				return terms.Resolve(it.Term)
			}
		}
		return ""
	}
	byOrder := map[int]string{}
	for _, e := range result.Envelope.Edges {
		byOrder[e.Order] = termOf(int32(e.To))
	}
	assert.Equal(t, "be-", byOrder[0])
	assert.Equal(t, "dew", byOrder[1])
	assert.Equal(t, "-ed", byOrder[2])
}

// TestE4SenseDisambiguationByContextGloss exercises spec E4: a citing
// item's own gloss is the disambiguation context, and the candidate whose
// gloss shares vocabulary wins. Using texts drawn from the same small
// vocabulary (rather than true synonyms) keeps the hashing embedding's
// cosine-similarity signal unambiguous without running the model.
func TestE4SenseDisambiguationByContextGloss(t *testing.T) {
	lines := []string{
		`{"lang_code":"en","word":"bankx","etymology_number":0,"pos":"verb","senses":[{"glosses":["to shine with heat"]}]}`,
		`{"lang_code":"en","word":"bankx","etymology_number":1,"pos":"verb","senses":[{"glosses":["to stare blankly into darkness"]}]}`,
		`{"lang_code":"en","word":"ctxone","pos":"verb","senses":[{"glosses":["to shine with heat"]}],"etymology_templates":[{"name":"inherited","args":{"1":"en","2":"en","3":"bankx"}}]}`,
		`{"lang_code":"en","word":"ctxtwo","pos":"verb","senses":[{"glosses":["to stare blankly into darkness"]}],"etymology_templates":[{"name":"inherited","args":{"1":"en","2":"en","3":"bankx"}}]}`,
	}
	p, result := newTestPipeline(t, lines)

	terms, langs := p.Terms(), p.Langs()
	ctxOneID, _ := terms.Lookup("ctxone")
	ctxTwoID, _ := terms.Lookup("ctxtwo")
	enID, _ := langs.Lookup("en")

	var itemIDFor = func(termID, langID int32) int32 {
		for _, it := range result.Envelope.Items {
			if int32(it.Term) == termID && int32(it.Lang) == langID {
				return int32(it.ID)
			}
		}
		return -1
	}
	ctxOneItem := itemIDFor(int32(ctxOneID), int32(enID))
	ctxTwoItem := itemIDFor(int32(ctxTwoID), int32(enID))
	require.NotEqual(t, int32(-1), ctxOneItem)
	require.NotEqual(t, int32(-1), ctxTwoItem)

	var edgeFrom = func(itemID int32) *serialize.Edge {
		for i := range result.Envelope.Edges {
			if int32(result.Envelope.Edges[i].From) == itemID {
				return &result.Envelope.Edges[i]
			}
		}
		return nil
	}
	e1 := edgeFrom(ctxOneItem)
	e2 := edgeFrom(ctxTwoItem)
	require.NotNil(t, e1)
	require.NotNil(t, e2)
	assert.NotEqual(t, e1.To, e2.To, "the two contexts must resolve to different senses of bankx")
}

// TestE5CycleRejectionPreservesAcyclicity exercises spec E5: an ancestry
// edge that would close a cycle is dropped, not inserted, and counted.
func TestE5CycleRejectionPreservesAcyclicity(t *testing.T) {
	lines := []string{
		`{"lang_code":"en","word":"p","pos":"noun","senses":[{"glosses":["p sense"]}],"etymology_templates":[{"name":"inherited","args":{"1":"en","2":"en","3":"q"}}]}`,
		`{"lang_code":"en","word":"q","pos":"noun","senses":[{"glosses":["q sense"]}],"etymology_templates":[{"name":"inherited","args":{"1":"en","2":"en","3":"p"}}]}`,
	}
	_, result := newTestPipeline(t, lines)

	assert.Len(t, result.Envelope.Edges, 1, "the back-edge closing the cycle must be dropped")
	assert.Equal(t, 1, result.Counters[diagnostics.CycleViolation.String()])
}

// TestE6ImputationThenUpgradeRewritesEdgeAtSerialize exercises spec E6.
// The pipeline's clean two-pass run never leaves a dangling imputation
// for a term present anywhere in its own input (pass 1 always populates
// the store before pass 2 resolves citations), so this drives the
// upgrade-then-rewrite contract directly against the pipeline's own
// store/graph, the way a second run against an updated dump would.
func TestE6ImputationThenUpgradeRewritesEdgeAtSerialize(t *testing.T) {
	lines := []string{
		`{"lang_code":"en","word":"x","pos":"noun","senses":[{"glosses":["x sense"]}],"etymology_templates":[{"name":"inherited","args":{"1":"en","2":"en","3":"t"}}]}`,
	}
	p, result := newTestPipeline(t, lines)
	require.Len(t, result.Envelope.Edges, 1)

	terms, langs := p.Terms(), p.Langs()
	tID, _ := terms.Lookup("t")
	enID, _ := langs.Lookup("en")

	group := p.Store().Group(enID, tID)
	require.Len(t, group, 1)
	imputedID := group[0]
	require.True(t, p.Store().Get(imputedID).Imputed)

	realID := p.Store().Upsert(&entry.Entry{Lang: "en", Term: "t", Senses: []entry.Sense{{Gloss: "t sense"}}})
	p.Store().Upgrade(imputedID, realID)

	env := serialize.BuildEnvelope(p.Store(), p.Graph(), p.Terms(), p.Langs(), p.Modes(), p.LangTable(), nil)
	for _, e := range env.Edges {
		assert.NotEqual(t, int32(imputedID), int32(e.To), "no edge may still point at the upgraded imputed item")
	}
}
