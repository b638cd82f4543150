package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedErrorsMatchByKind(t *testing.T) {
	wrapped := WrapKind(ErrKindOverlap, "arena \"origin\": [8,24) overlaps [0,16)", ErrOverlap)

	require.ErrorIs(t, wrapped, ErrOverlap)
	require.NotErrorIs(t, wrapped, ErrCycle)

	// Another layer of plain wrapping still matches.
	again := fmt.Errorf("solve: %w", wrapped)
	require.ErrorIs(t, again, ErrOverlap)

	var terr *Error
	require.True(t, errors.As(again, &terr))
	require.Equal(t, ErrKindOverlap, terr.Kind)
}

func TestErrorStringIncludesCause(t *testing.T) {
	e := WrapKind(ErrKindNotFound, "anchor \"ghost\"", ErrNotFound)
	require.Equal(t, "anchor \"ghost\": not found", e.Error())

	bare := &Error{Kind: ErrKindArg, Msg: "bad gap"}
	require.Equal(t, "bad gap", bare.Error())
}

func TestParseProfileDefaultsToCPU(t *testing.T) {
	require.Equal(t, ProfileCPU, ParseProfile("cpu"))
	require.Equal(t, ProfileGPU, ParseProfile("gpu"))
	require.Equal(t, ProfileEmbed, ParseProfile("embed"))
	require.Equal(t, ProfileCPU, ParseProfile(""))
	require.Equal(t, ProfileCPU, ParseProfile("quantum"))
}

func TestEnumStrings(t *testing.T) {
	require.Equal(t, "spread", OpSpread.String())
	require.Equal(t, "fill", OpFill.String())
	require.Equal(t, "none", OpNone.String())
	require.Equal(t, "reverse", Reverse.String())
	require.Equal(t, "decl", AnchorDecl.String())
	require.Equal(t, "gpu", ProfileGPU.String())
}

func TestReportSeverityPartition(t *testing.T) {
	r := &Report{}
	r.Warnf(KindFallbackAllocation, "b", "placed at %d", 64)
	r.Fatalf(KindOverlap, "c", "overlaps %q", "a")

	require.True(t, r.HasFatal())
	require.Len(t, r.Warnings(), 1)
	require.Equal(t, "b", r.Warnings()[0].Decl)

	other := &Report{}
	other.Warnf(KindUnsafeAlias, "v", "aliased view")
	r.Merge(other)
	require.Len(t, r.Diagnostics, 3)

	data, err := r.JSON()
	require.NoError(t, err)
	require.Contains(t, string(data), `"fallback-allocation"`)
	require.Contains(t, string(data), `"warning"`)
	require.Contains(t, string(data), `"fatal"`)
}
