// Package api defines the request and response messages of the splitledger
// RPC services. Messages travel as JSON; amounts are decimal strings in major
// currency units unless a field name says cents.
package api

import "encoding/json"

type Member struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	WalletAddress string `json:"walletAddress,omitempty"`
	HasWallet     bool   `json:"hasWallet"`
	CreatedAt     int64  `json:"createdAt"`
}

type Share struct {
	MemberID string `json:"memberId"`
	Amount   string `json:"amount"`
}

type Expense struct {
	ID          string  `json:"id"`
	PayerID     string  `json:"payerId,omitempty"`
	Description string  `json:"description,omitempty"`
	Amount      string  `json:"amount"`
	Shares      []Share `json:"shares"`
	CreatedAt   int64   `json:"createdAt"`
}

type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	Members   []Member  `json:"members"`
	Expenses  []Expense `json:"expenses,omitempty"`
	CreatedAt int64     `json:"createdAt"`
}

type Balance struct {
	MemberID   string `json:"memberId"`
	Name       string `json:"name"`
	NetBalance string `json:"netBalance"`
	TotalPaid  string `json:"totalPaid"`
	TotalOwed  string `json:"totalOwed"`
}

type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// Record is a locally saved settlement commit.
type Record struct {
	ID             string `json:"id"`
	GroupID        string `json:"groupId"`
	SettlementID   string `json:"settlementId"`
	TxHash         string `json:"txHash"`
	TxURL          string `json:"txUrl"`
	SettlementHash string `json:"settlementHash"`
	CommittedBy    string `json:"committedBy"`
	CreatedAt      int64  `json:"createdAt"`
}

// GroupService

type CreateGroupRequest struct {
	Name     string   `json:"name"`
	Currency string   `json:"currency,omitempty"`
	Members  []string `json:"members"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type AddMemberRequest struct {
	GroupID       string `json:"groupId"`
	Name          string `json:"name"`
	WalletAddress string `json:"walletAddress,omitempty"`
}

type AddMemberResponse struct {
	Member *Member `json:"member"`
}

// UpdateMemberWalletRequest sets a wallet address; an empty address clears it.
type UpdateMemberWalletRequest struct {
	GroupID       string `json:"groupId"`
	MemberID      string `json:"memberId"`
	WalletAddress string `json:"walletAddress"`
}

type UpdateMemberWalletResponse struct {
	Member *Member `json:"member"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"groupId"`
}

type DeleteGroupResponse struct{}

// RemoveMemberRequest removes a member. It fails while the member still
// holds expense shares.
type RemoveMemberRequest struct {
	GroupID  string `json:"groupId"`
	MemberID string `json:"memberId"`
}

type RemoveMemberResponse struct{}

// AddExpenseRequest records an expense. Either Shares or SplitAmong is set;
// SplitAmong divides Amount equally in whole cents.
type AddExpenseRequest struct {
	GroupID     string   `json:"groupId"`
	PayerID     string   `json:"payerId"`
	Description string   `json:"description,omitempty"`
	Amount      string   `json:"amount"`
	Shares      []Share  `json:"shares,omitempty"`
	SplitAmong  []string `json:"splitAmong,omitempty"`
}

type AddExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetBalancesRequest struct {
	GroupID string `json:"groupId"`
}

type GetBalancesResponse struct {
	Balances  []Balance  `json:"balances"`
	Transfers []Transfer `json:"transfers"`
}

// SettlementService

type BuildSettlementRequest struct {
	GroupID string `json:"groupId"`
}

type BuildSettlementResponse struct {
	// Document is the canonical settlement document, byte for byte.
	Document             json.RawMessage `json:"document"`
	Canonical            string          `json:"canonical"`
	Hash                 string          `json:"hash"`
	GroupDigest          string          `json:"groupDigest"`
	TotalCents           int64           `json:"totalCents"`
	ParticipantAddresses []string        `json:"participantAddresses"`
	Empty                bool            `json:"empty"`
	MissingWallets       []string        `json:"missingWallets,omitempty"`
}

// VerifySettlementRequest identifies a commitment by settlement id, or by
// the commit transaction hash when the id is unknown.
type VerifySettlementRequest struct {
	GroupID      string `json:"groupId"`
	SettlementID string `json:"settlementId,omitempty"`
	TxHash       string `json:"txHash,omitempty"`
}

type VerifySettlementResponse struct {
	Outcome      string `json:"outcome"`
	Matched      bool   `json:"matched"`
	SettlementID string `json:"settlementId"`
	RecordedHash string `json:"recordedHash,omitempty"`
	ComputedHash string `json:"computedHash"`
	Currency     string `json:"currency,omitempty"`
	TotalCents   string `json:"totalCents,omitempty"`
	CommittedBy  string `json:"committedBy,omitempty"`
}

// RecordCommitRequest saves a commit made by an external wallet. The
// settlement id is read from the transaction receipt when omitted.
type RecordCommitRequest struct {
	GroupID        string `json:"groupId"`
	TxHash         string `json:"txHash"`
	SettlementID   string `json:"settlementId,omitempty"`
	SettlementHash string `json:"settlementHash,omitempty"`
	CommittedBy    string `json:"committedBy"`
}

type RecordCommitResponse struct {
	Record *Record `json:"record"`
}

type ListRecordsRequest struct {
	GroupID string `json:"groupId"`
}

type ListRecordsResponse struct {
	Records []*Record `json:"records"`
}
