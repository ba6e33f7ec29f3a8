package serialize

import (
	"encoding/json"
	"sort"

	"github.com/grimmgraph/grimm/internal/diagnostics"
	"github.com/grimmgraph/grimm/internal/graph"
	"github.com/grimmgraph/grimm/internal/intern"
	"github.com/grimmgraph/grimm/internal/items"
	"github.com/grimmgraph/grimm/internal/langref"
	"github.com/grimmgraph/grimm/internal/model"
)

// Item is the exported shape of one item (spec §6): embeddings are never
// serialized (spec §4.10).
type Item struct {
	ID            model.ItemID `json:"id"`
	Lang          intern.ID    `json:"lang"`
	Term          intern.ID    `json:"term"`
	EtyNum        int          `json:"etyNum"`
	Reconstructed bool         `json:"reconstructed"`
	Imputed       bool         `json:"imputed"`
	POS           string       `json:"pos,omitempty"`
	Gloss         string       `json:"gloss,omitempty"`
	Romanization  string       `json:"romanization,omitempty"`
	URL           string       `json:"url,omitempty"`
}

// Edge is the exported shape of one edge (spec §6). Endpoints have
// already been rewritten past any imputed-item replacement.
type Edge struct {
	From  model.ItemID `json:"from"`
	To    model.ItemID `json:"to"`
	Mode  string       `json:"mode"`
	Order int          `json:"order"`
}

// Lang is the exported reference-table subset actually referenced by the
// serialized items (spec §6).
type Lang struct {
	ID     intern.ID `json:"id"`
	Code   string    `json:"code"`
	Name   string    `json:"name"`
	Family string    `json:"family"`
	Kind   string    `json:"kind"`
}

// Envelope is the compact JSON serialization format of spec §4.10.
type Envelope struct {
	Items    []Item            `json:"items"`
	Edges    []Edge            `json:"edges"`
	Langs    []Lang            `json:"langs"`
	Metadata map[string]string `json:"metadata"`
}

// BuildEnvelope implements both serializer passes (spec §4.10): pass A
// walks every item id-ordered; pass B walks every edge, resolving
// endpoints through store.Resolve so an edge that once pointed at an
// imputed item lands on whatever real item later replaced it.
func BuildEnvelope(store *items.Store, g *graph.Graph, terms, langs, modes *intern.Table, langTable *langref.Table, metadata map[string]string) Envelope {
	env := Envelope{Metadata: metadata}

	referenced := make(map[intern.ID]bool)
	for _, it := range store.All() {
		env.Items = append(env.Items, toJSONItem(it, terms))
		referenced[it.Lang] = true
	}

	for _, e := range g.Edges() {
		env.Edges = append(env.Edges, Edge{
			From:  store.Resolve(e.From),
			To:    store.Resolve(e.To),
			Mode:  modes.Resolve(e.Mode),
			Order: e.Order,
		})
	}
	sort.Slice(env.Edges, func(i, j int) bool {
		if env.Edges[i].From != env.Edges[j].From {
			return env.Edges[i].From < env.Edges[j].From
		}
		if env.Edges[i].Mode != env.Edges[j].Mode {
			return env.Edges[i].Mode < env.Edges[j].Mode
		}
		return env.Edges[i].Order < env.Edges[j].Order
	})

	var ids []intern.ID
	for id := range referenced {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		lang, ok := langTable.Get(id)
		if !ok {
			continue
		}
		env.Langs = append(env.Langs, Lang{
			ID:     id,
			Code:   lang.Code,
			Name:   lang.Name,
			Family: lang.Family,
			Kind:   string(lang.Kind),
		})
	}

	return env
}

func toJSONItem(it *model.Item, terms *intern.Table) Item {
	out := Item{
		ID:            it.ID,
		Lang:          it.Lang,
		Term:          it.Term,
		EtyNum:        it.EtyNumber,
		Reconstructed: it.Reconstructed,
		Imputed:       it.Imputed,
		Romanization:  it.Romanization,
		URL:           it.URL,
	}
	if len(it.Senses) > 0 {
		out.POS = it.Senses[0].POS
		out.Gloss = it.Senses[0].Gloss
	}
	return out
}

// WriteJSON writes env to path (spec §4.10), gzip-compressed when path
// ends in ".gz" (spec §6).
func WriteJSON(path string, env Envelope) error {
	w, closeFn, err := create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(env); err != nil {
		abort(path)
		return diagnostics.Wrap(diagnostics.IoError, err)
	}
	return closeFn()
}
