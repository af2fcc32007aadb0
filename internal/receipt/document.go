// Package receipt builds the bilingual voter receipt and rasterizes it to
// the bitmap handed to the ESC/POS encoder.
package receipt

import (
	"fmt"
	"strings"

	"github.com/Shiro005/electionapp-sub000/internal/model"
)

// Field labels are fixed Marathi strings; only the values come from voter
// data and pass through the translator upstream.
const (
	labelName    = "नाव"
	labelVoterID = "मतदार ओळखपत्र"
	labelSerial  = "अनुक्रमांक"
	labelBooth   = "बूथ क्रमांक"
	labelGender  = "लिंग"
	labelAge     = "वय"
	labelStation = "मतदान केंद्र"

	familyHeader = "कुटुंब तपशील"
	appealLine   = "आपले बहुमूल्य मत आम्हाला द्या!"
)

// Escape replaces the five HTML-significant characters in interpolated
// voter data. Voter records arrive from an external store; nothing they
// contain may ever be interpreted as markup.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

func Escape(s string) string {
	return escaper.Replace(s)
}

// Field is one labeled line of a voter block.
type Field struct {
	Label string
	Value string
}

// Block is one voter's section of the receipt. Number is empty on a
// single-voter receipt and "1)", "2)", … on a family receipt.
type Block struct {
	Number   string
	Fields   []Field
	Bordered bool
}

// Document is the fixed-width receipt layout before rasterization.
type Document struct {
	Header     []string
	SubHeader  string
	Blocks     []Block
	Appeal     string
	Footer     string
	FamilyMode bool
}

func brandingHeader(branding model.CandidateBranding) []string {
	return []string{
		Escape(branding.PartyName),
		Escape(branding.CandidateName),
		Escape(branding.Slogan),
		Escape(branding.Area),
	}
}

func voterFields(v model.VoterRecord) []Field {
	return []Field{
		{Label: labelName, Value: Escape(v.Name)},
		{Label: labelVoterID, Value: Escape(v.VoterID)},
		{Label: labelSerial, Value: Escape(v.SerialNumber)},
		{Label: labelBooth, Value: Escape(v.BoothNumber)},
		{Label: labelGender, Value: Escape(v.Gender)},
		{Label: labelAge, Value: Escape(v.Age)},
		{Label: labelStation, Value: Escape(v.PollingStationAddress)},
	}
}

// BuildSingle lays out a one-voter receipt.
func BuildSingle(voter model.VoterRecord, branding model.CandidateBranding) Document {
	return Document{
		Header: brandingHeader(branding),
		Blocks: []Block{
			{Fields: voterFields(voter)},
		},
		Appeal: appealLine,
		Footer: Escape(branding.CandidateName),
	}
}

// BuildFamily lays out a combined receipt: the head voter numbered "1)"
// followed by each family member in caller order, each in its own bordered
// block. The roster is assumed non-empty; the orchestrator rejects empty
// family prints before reaching this package.
func BuildFamily(head model.VoterRecord, roster model.FamilyRoster, branding model.CandidateBranding) Document {
	blocks := make([]Block, 0, len(roster)+1)
	blocks = append(blocks, Block{
		Number:   "1)",
		Fields:   voterFields(head),
		Bordered: true,
	})
	for i, member := range roster {
		blocks = append(blocks, Block{
			Number:   fmt.Sprintf("%d)", i+2),
			Fields:   voterFields(member),
			Bordered: true,
		})
	}
	return Document{
		Header:     brandingHeader(branding),
		SubHeader:  familyHeader,
		Blocks:     blocks,
		Appeal:     appealLine,
		Footer:     Escape(branding.CandidateName),
		FamilyMode: true,
	}
}

// Lines flattens the document top to bottom, the same order the rasterizer
// draws it in.
func (d Document) Lines() []string {
	lines := make([]string, 0, 8+len(d.Blocks)*8)
	lines = append(lines, d.Header...)
	if d.SubHeader != "" {
		lines = append(lines, d.SubHeader)
	}
	for _, block := range d.Blocks {
		if block.Number != "" {
			lines = append(lines, block.Number)
		}
		for _, field := range block.Fields {
			lines = append(lines, field.Label+": "+field.Value)
		}
	}
	lines = append(lines, d.Appeal, d.Footer)
	return lines
}
