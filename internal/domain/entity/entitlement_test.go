package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEntitlements(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]string
		want     []App
	}{
		{
			name:     "explicit app list",
			metadata: map[string]string{"apps": "safetunes,safetube"},
			want:     []App{AppSafeTube, AppSafeTunes},
		},
		{
			name:     "single app",
			metadata: map[string]string{"apps": "safereads"},
			want:     []App{AppSafeReads},
		},
		{
			name:     "absent apps key defaults to full bundle",
			metadata: map[string]string{"bundle": "true"},
			want:     []App{AppSafeReads, AppSafeTube, AppSafeTunes},
		},
		{
			name:     "nil metadata defaults to full bundle",
			metadata: nil,
			want:     []App{AppSafeReads, AppSafeTube, AppSafeTunes},
		},
		{
			name:     "unknown names are dropped",
			metadata: map[string]string{"apps": "safetunes,frobnicator"},
			want:     []App{AppSafeTunes},
		},
		{
			name:     "only unknown names falls back to full bundle",
			metadata: map[string]string{"apps": "frobnicator,whatsit"},
			want:     []App{AppSafeReads, AppSafeTube, AppSafeTunes},
		},
		{
			name:     "whitespace and empty segments tolerated",
			metadata: map[string]string{"apps": " safetunes , ,safetube "},
			want:     []App{AppSafeTube, AppSafeTunes},
		},
		{
			name:     "duplicates collapse",
			metadata: map[string]string{"apps": "safetunes,safetunes"},
			want:     []App{AppSafeTunes},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveEntitlements(tt.metadata)
			assert.Equal(t, tt.want, got.Apps())
		})
	}
}

func TestEntitlementSetDifference(t *testing.T) {
	previous := NewEntitlementSet(AppSafeTunes, AppSafeTube, AppSafeReads)
	desired := NewEntitlementSet(AppSafeTunes)

	toGrant := desired.Difference(previous)
	toRevoke := previous.Difference(desired)

	assert.Equal(t, 0, toGrant.Len())
	assert.Equal(t, []App{AppSafeReads, AppSafeTube}, toRevoke.Apps())
	// The shared app stays out of both directions.
	assert.False(t, toRevoke.Contains(AppSafeTunes))
}

func TestEntitlementSetDifferenceDisjoint(t *testing.T) {
	previous := NewEntitlementSet(AppSafeReads)
	desired := NewEntitlementSet(AppSafeTunes, AppSafeTube)

	assert.Equal(t, []App{AppSafeTube, AppSafeTunes}, desired.Difference(previous).Apps())
	assert.Equal(t, []App{AppSafeReads}, previous.Difference(desired).Apps())
}

func TestIsBundle(t *testing.T) {
	assert.True(t, IsBundle(map[string]string{"bundle": "true"}))
	assert.True(t, IsBundle(map[string]string{"bundle": "TRUE"}))
	assert.False(t, IsBundle(map[string]string{"bundle": "false"}))
	assert.False(t, IsBundle(map[string]string{}))
	assert.False(t, IsBundle(nil))
}

func TestParseApp(t *testing.T) {
	for _, app := range AllApps() {
		got, ok := ParseApp(string(app))
		assert.True(t, ok)
		assert.Equal(t, app, got)
	}

	_, ok := ParseApp("frobnicator")
	assert.False(t, ok)
	_, ok = ParseApp("")
	assert.False(t, ok)
}
