package model

import (
	"github.com/google/uuid"
)

// Case status constants
const (
	CaseStatusOpen   = "open"
	CaseStatusClosed = "closed"
)

// Case is a legal matter owned by exactly one user.
type Case struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID string    `json:"user_id" db:"user_id"`
	Status string    `json:"status" db:"status"`

	ClientName        string `json:"client_name" db:"client_name"`
	ClientPhone       string `json:"client_phone" db:"client_phone"`
	FirstParty        string `json:"first_party" db:"first_party"`
	SecondParty       string `json:"second_party" db:"second_party"`
	AppearingFor      string `json:"appearing_for" db:"appearing_for"`
	ReferringAdvocate string `json:"referring_advocate" db:"referring_advocate"`
	InchargeAdvocate  string `json:"incharge_advocate" db:"incharge_advocate"`
	OtherSideAdvocate string `json:"other_side_advocate" db:"other_side_advocate"`
	CounselAdvocate   string `json:"counsel_advocate" db:"counsel_advocate"`

	CaseNumber string `json:"case_number" db:"case_number"`
	CNRNumber  string `json:"cnr_number" db:"cnr_number"`
	CaseType   string `json:"case_type" db:"case_type"`
	CourtName  string `json:"court_name" db:"court_name"`
	StampNo    string `json:"stamp_no" db:"stamp_no"`
	FileNo     string `json:"file_no" db:"file_no"`

	FirstHearingDate Date      `json:"first_hearing_date" db:"first_hearing_date"`
	NextHearingDate  Date      `json:"next_hearing_date" db:"next_hearing_date"`
	NextStage        string    `json:"next_stage" db:"next_stage"`
	Notes            string    `json:"notes" db:"notes"`
	Documents        Documents `json:"documents" db:"documents"`
	Timestamps
}

// IsOpen reports whether the case still accepts hearings.
func (c *Case) IsOpen() bool {
	return c.Status != CaseStatusClosed
}

// CaseDetails is the editable part of a case.
type CaseDetails struct {
	ClientName        string `json:"client_name" binding:"required,max=200"`
	ClientPhone       string `json:"client_phone" binding:"omitempty,max=32"`
	FirstParty        string `json:"first_party" binding:"omitempty,max=200"`
	SecondParty       string `json:"second_party" binding:"omitempty,max=200"`
	AppearingFor      string `json:"appearing_for" binding:"omitempty,max=100"`
	ReferringAdvocate string `json:"referring_advocate" binding:"omitempty,max=200"`
	InchargeAdvocate  string `json:"incharge_advocate" binding:"omitempty,max=200"`
	OtherSideAdvocate string `json:"other_side_advocate" binding:"omitempty,max=200"`
	CounselAdvocate   string `json:"counsel_advocate" binding:"omitempty,max=200"`
	CaseNumber        string `json:"case_number" binding:"omitempty,max=100"`
	CNRNumber         string `json:"cnr_number" binding:"omitempty,max=32"`
	CaseType          string `json:"case_type" binding:"omitempty,max=100"`
	CourtName         string `json:"court_name" binding:"omitempty,max=200"`
	StampNo           string `json:"stamp_no" binding:"omitempty,max=64"`
	FileNo            string `json:"file_no" binding:"omitempty,max=64"`
	NextStage         string `json:"next_stage" binding:"omitempty,max=200"`
	Notes             string `json:"notes" binding:"omitempty,max=5000"`
}

// Apply copies the editable fields onto c.
func (d CaseDetails) Apply(c *Case) {
	c.ClientName = d.ClientName
	c.ClientPhone = d.ClientPhone
	c.FirstParty = d.FirstParty
	c.SecondParty = d.SecondParty
	c.AppearingFor = d.AppearingFor
	c.ReferringAdvocate = d.ReferringAdvocate
	c.InchargeAdvocate = d.InchargeAdvocate
	c.OtherSideAdvocate = d.OtherSideAdvocate
	c.CounselAdvocate = d.CounselAdvocate
	c.CaseNumber = d.CaseNumber
	c.CNRNumber = d.CNRNumber
	c.CaseType = d.CaseType
	c.CourtName = d.CourtName
	c.StampNo = d.StampNo
	c.FileNo = d.FileNo
	c.NextStage = d.NextStage
	c.Notes = d.Notes
}

type CreateCaseRequest struct {
	CaseDetails
	FirstHearingDate Date `json:"first_hearing_date"`
}

type UpdateCaseRequest struct {
	CaseDetails
}
