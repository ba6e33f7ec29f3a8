package pool

import "testing"

func TestGetBucketIsZeroedAndSized(t *testing.T) {
	b := GetBucket(8)
	if len(b) != 8 {
		t.Fatalf("expected length 8, got %d", len(b))
	}
	for i, v := range b {
		if v != 0 {
			t.Fatalf("expected zeroed buffer, index %d = %v", i, v)
		}
	}
	b[3] = 42
	PutBucket(b)

	reused := GetBucket(8)
	for i, v := range reused {
		if v != 0 {
			t.Fatalf("expected reused buffer zeroed, index %d = %v", i, v)
		}
	}
}

func TestGetMetaIsEmptyAndReused(t *testing.T) {
	m := GetMeta()
	m["run"] = "one"
	PutMeta(m)

	reused := GetMeta()
	if len(reused) != 0 {
		t.Fatalf("expected empty map, got %v", reused)
	}
}
