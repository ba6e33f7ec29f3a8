package langref

import (
	"strings"
	"testing"

	"github.com/grimmgraph/grimm/internal/intern"
	"github.com/grimmgraph/grimm/internal/model"
)

const sample = "" +
	"en\tEnglish\tgem\tenm,ang,gem-pro,ine-pro\tregular\tLatn\tQ1860\n" +
	"enm\tMiddle English\tgem\tang,gem-pro,ine-pro\tregular\tLatn\t\n" +
	"ang\tOld English\tgem\tgem-pro,ine-pro\tregular\tLatn\t\n" +
	"gem-pro\tProto-Germanic\tgem\tine-pro\treconstructed\t\t\n" +
	"ine-pro\tProto-Indo-European\tine\t\treconstructed\t\t\n" +
	"fr\tFrench\titc\tfro,la,itc-pro,ine-pro\tregular\tLatn\tQ150\n"

func loadSample(t *testing.T) (*Table, *intern.Table) {
	t.Helper()
	langTable := intern.New()
	tbl, err := Load(strings.NewReader(sample), langTable)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return tbl, langTable
}

func TestLoadAndLookup(t *testing.T) {
	tbl, langTable := loadSample(t)

	enID, ok := tbl.Lookup("en")
	if !ok {
		t.Fatal("expected to find 'en'")
	}
	lang, ok := tbl.Get(enID)
	if !ok {
		t.Fatal("expected Get to find en")
	}
	if lang.Name != "English" || lang.Kind != model.KindRegular {
		t.Fatalf("unexpected language record: %+v", lang)
	}
	if len(lang.Ancestry) != 4 {
		t.Fatalf("expected 4-deep ancestry chain, got %d", len(lang.Ancestry))
	}
	if got := langTable.Resolve(lang.Ancestry[0]); got != "enm" {
		t.Fatalf("expected nearest-first chain to start with enm, got %s", got)
	}
}

func TestDistance(t *testing.T) {
	tbl, _ := loadSample(t)
	en, _ := tbl.Lookup("en")
	enm, _ := tbl.Lookup("enm")
	ang, _ := tbl.Lookup("ang")
	fr, _ := tbl.Lookup("fr")

	if d := tbl.Distance(en, en); d != 0 {
		t.Errorf("Distance(en, en) = %d, want 0", d)
	}
	if d := tbl.Distance(en, enm); d != 1 {
		t.Errorf("Distance(en, enm) = %d, want 1", d)
	}
	if d := tbl.Distance(en, ang); d != 2 {
		t.Errorf("Distance(en, ang) = %d, want 2", d)
	}
	if d := tbl.Distance(en, fr); d != model.DistanceUnrelated {
		t.Errorf("Distance(en, fr) = %d, want common Indo-European ancestor distance, not unrelated", d)
	}
}
