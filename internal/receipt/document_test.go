package receipt_test

import (
	"strings"
	"testing"

	"github.com/Shiro005/electionapp-sub000/internal/model"
	"github.com/Shiro005/electionapp-sub000/internal/receipt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBranding = model.CandidateBranding{
	PartyName:      "X",
	CandidateName:  "Y",
	Slogan:         "Z",
	Area:           "W",
	ContactNumber:  "123",
	ElectionSymbol: "Lotus",
}

var testVoter = model.VoterRecord{
	Name:                  "Ram Sharma",
	VoterID:               "ABC123",
	SerialNumber:          "7",
	BoothNumber:           "12",
	PollingStationAddress: "Town Hall",
	Age:                   "45",
	Gender:                "Male",
}

func TestEscape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: `<script>&"'`, want: "&lt;script&gt;&amp;&quot;&#039;"},
		{in: "a & b", want: "a &amp; b"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, receipt.Escape(tt.in))
	}
}

func TestBuildSingleContainsAllFields(t *testing.T) {
	t.Parallel()

	doc := receipt.BuildSingle(testVoter, testBranding)
	require.Len(t, doc.Blocks, 1)
	assert.False(t, doc.FamilyMode)
	assert.Empty(t, doc.Blocks[0].Number)

	flat := strings.Join(doc.Lines(), "\n")
	for _, want := range []string{"Ram Sharma", "ABC123", "12", "45", "Male", "Town Hall"} {
		assert.Contains(t, flat, want)
	}
	// Branding header precedes the voter block.
	assert.Equal(t, []string{"X", "Y", "Z", "W"}, doc.Header)
	assert.Equal(t, "Y", doc.Footer)
	assert.NotEmpty(t, doc.Appeal)
}

func TestBuildSingleEscapesVoterData(t *testing.T) {
	t.Parallel()

	hostile := testVoter
	hostile.Name = `<script>&"'`
	doc := receipt.BuildSingle(hostile, testBranding)

	flat := strings.Join(doc.Lines(), "\n")
	assert.Contains(t, flat, "&lt;script&gt;&amp;&quot;&#039;")
	assert.NotContains(t, flat, "<script>")
}

func TestBuildFamilyNumbering(t *testing.T) {
	t.Parallel()

	roster := model.FamilyRoster{
		{Name: "Sita Sharma"},
		{Name: "Lav Sharma"},
	}
	doc := receipt.BuildFamily(testVoter, roster, testBranding)

	require.Len(t, doc.Blocks, 3)
	assert.True(t, doc.FamilyMode)
	assert.NotEmpty(t, doc.SubHeader)

	assert.Equal(t, "1)", doc.Blocks[0].Number)
	assert.Equal(t, "2)", doc.Blocks[1].Number)
	assert.Equal(t, "3)", doc.Blocks[2].Number)

	// Head first, then roster in caller order.
	assert.Equal(t, "Ram Sharma", doc.Blocks[0].Fields[0].Value)
	assert.Equal(t, "Sita Sharma", doc.Blocks[1].Fields[0].Value)
	assert.Equal(t, "Lav Sharma", doc.Blocks[2].Fields[0].Value)

	for _, block := range doc.Blocks {
		assert.True(t, block.Bordered)
	}
}

func TestBuildFamilyPreservesDuplicates(t *testing.T) {
	t.Parallel()

	roster := model.FamilyRoster{{Name: "Same"}, {Name: "Same"}}
	doc := receipt.BuildFamily(testVoter, roster, testBranding)
	require.Len(t, doc.Blocks, 3)
}

func TestAbsentFieldsRenderEmpty(t *testing.T) {
	t.Parallel()

	doc := receipt.BuildSingle(model.VoterRecord{}, testBranding)
	require.Len(t, doc.Blocks, 1)
	for _, field := range doc.Blocks[0].Fields {
		assert.Empty(t, field.Value)
		assert.NotEmpty(t, field.Label)
	}
}
