package morphology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDropSilentE(t *testing.T) {
	tests := []struct {
		root, suffix, want string
	}{
		{"age", "ing", "ag"},
		{"activate", "ing", "activat"},
		{"see", "ing", "see"},
		{"be", "ing", "be"},
		{"age", "ed", "age"},
		{"runn", "ing", "runn"},
		{"", "ing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.root+"+"+tt.suffix, func(t *testing.T) {
			assert.Equal(t, tt.want, DropSilentE(tt.root, tt.suffix))
		})
	}
}

func TestStemRepairerFirstRuleWins(t *testing.T) {
	first := func(root, _ string) string { return root + "1" }
	second := func(root, _ string) string { return root + "2" }
	noop := func(root, _ string) string { return root }

	r := NewStemRepairer(noop, first, second)
	assert.Equal(t, "x1", r.Repair("x", ""))

	var nilRepairer *StemRepairer
	assert.Equal(t, "x", nilRepairer.Repair("x", "ing"))
}

func TestStemRepairerRespectsMinRoot(t *testing.T) {
	short := func(root, _ string) string { return root[:1] }
	r := NewStemRepairer(short, DropSilentE)

	assert.Equal(t, "ag", r.Repair("age", "ing"), "first rule only yields one character, next rule applies")
	assert.Equal(t, "age", r.RepairWithin("age", "ing", 3))
	assert.Equal(t, "stag", r.RepairWithin("stage", "ing", 4))
	assert.Equal(t, "stage", r.RepairWithin("stage", "ing", 5))
}

func TestApplyRepair(t *testing.T) {
	tests := []struct {
		name  string
		root  string
		fixed string
		start int
		end   int
		want  repaired
	}{
		{"unchanged", "happy", "happy", 2, 7, repaired{"happy", 7, RepairNone}},
		{"shortened", "age", "ag", 0, 3, repaired{"ag", 2, RepairApplied}},
		{"same length rewrite", "tri", "try", 0, 3, repaired{"try", 3, RepairApplied}},
		{"emptied", "happy", "", 2, 7, repaired{"", 2, RepairApplied}},
		{"grown", "activat", "activate", 2, 9, repaired{"activat", 9, RepairRejected}},
		{"start rewritten", "happy", "xappy", 2, 7, repaired{"happy", 7, RepairRejected}},
		{"stale boundary", "activate", "a", 2, 6, repaired{"", 2, RepairClamped}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, applyRepair(tt.root, tt.fixed, tt.start, tt.end))
		})
	}
}

func TestAdjustRootEnd(t *testing.T) {
	end, clamped := adjustRootEnd(2, 5, 1)
	assert.Equal(t, 4, end)
	assert.False(t, clamped)

	end, clamped = adjustRootEnd(2, 5, 3)
	assert.Equal(t, 2, end)
	assert.False(t, clamped)

	end, clamped = adjustRootEnd(2, 5, 4)
	assert.Equal(t, 2, end)
	assert.True(t, clamped)
}
