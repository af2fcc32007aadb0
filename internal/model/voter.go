// Package model holds the records the printing pipeline consumes from the
// voter-management UI. The record store itself lives outside this service;
// everything here arrives over the API and is treated as read-only.
package model

// VoterRecord is a single voter as supplied by the voter-detail screen.
// Every field is optional; absent values print as empty lines on the
// receipt.
type VoterRecord struct {
	Name                  string `json:"name"`
	VoterID               string `json:"voterId"`
	SerialNumber          string `json:"serialNumber"`
	BoothNumber           string `json:"boothNumber"`
	PollingStationAddress string `json:"pollingStationAddress"`
	Age                   string `json:"age"`
	Gender                string `json:"gender"`
}

// IsZero reports whether no field of the record is set.
func (v VoterRecord) IsZero() bool {
	return v == VoterRecord{}
}

// FamilyRoster is an ordered list of family members for a combined receipt.
// Order is display order as supplied by the caller; no dedup or sorting is
// performed here.
type FamilyRoster []VoterRecord

// CandidateBranding is the static campaign record burned into every
// receipt. It is always fully populated: config supplies defaults for any
// field missing from the deployment file.
type CandidateBranding struct {
	PartyName      string `json:"partyName"      toml:"party_name"`
	CandidateName  string `json:"candidateName"  toml:"candidate_name"`
	Slogan         string `json:"slogan"         toml:"slogan"`
	Area           string `json:"area"           toml:"area"`
	ContactNumber  string `json:"contactNumber"  toml:"contact_number"`
	ElectionSymbol string `json:"electionSymbol" toml:"election_symbol"`
}
