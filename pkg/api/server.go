// Package api exposes the governance engine over HTTP. This is the surface
// the dashboard consumes: read endpoints stay available while the system is
// paused, and pause/unpause are plain POSTs subject to the engine's role
// checks.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/asthmajoy/govcore/pkg/events"
	"github.com/asthmajoy/govcore/pkg/gov"
)

// Server exposes the governance engine over HTTP.
type Server struct {
	engine   *gov.Engine
	events   *events.Manager
	registry *prometheus.Registry
	addr     string
	router   *mux.Router
	server   *http.Server
}

// NewServer creates a new API server.
func NewServer(engine *gov.Engine, manager *events.Manager, registry *prometheus.Registry, addr string) *Server {
	s := &Server{
		engine:   engine,
		events:   manager,
		registry: registry,
		addr:     addr,
	}
	s.setupRoutes()
	return s
}

// enableCORS enables CORS for all routes
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()
	s.router.Use(enableCORS)

	// Proposal routes
	s.router.HandleFunc("/api/proposals", s.listProposals).Methods("GET")
	s.router.HandleFunc("/api/proposals", s.createProposal).Methods("POST")
	s.router.HandleFunc("/api/proposals/{id}", s.getProposal).Methods("GET")
	s.router.HandleFunc("/api/proposals/{id}/state", s.getProposalState).Methods("GET")
	s.router.HandleFunc("/api/proposals/{id}/votes", s.listVotes).Methods("GET")
	s.router.HandleFunc("/api/proposals/{id}/vote", s.castVote).Methods("POST")
	s.router.HandleFunc("/api/proposals/{id}/cancel", s.cancelProposal).Methods("POST")
	s.router.HandleFunc("/api/proposals/{id}/queue", s.queueProposal).Methods("POST")
	s.router.HandleFunc("/api/proposals/{id}/execute", s.executeProposal).Methods("POST")
	s.router.HandleFunc("/api/proposals/{id}/refund", s.claimRefund).Methods("POST")

	// Governance parameter routes
	s.router.HandleFunc("/api/params", s.getParams).Methods("GET")
	s.router.HandleFunc("/api/params/{param}", s.updateParam).Methods("POST")

	// Access control routes
	s.router.HandleFunc("/api/roles/{role}", s.listRoleMembers).Methods("GET")
	s.router.HandleFunc("/api/roles/{role}/grant", s.grantRole).Methods("POST")
	s.router.HandleFunc("/api/roles/{role}/revoke", s.revokeRole).Methods("POST")
	s.router.HandleFunc("/api/pause", s.pause).Methods("POST")
	s.router.HandleFunc("/api/unpause", s.unpause).Methods("POST")
	s.router.HandleFunc("/api/paused", s.getPaused).Methods("GET")

	// Observability routes
	s.router.HandleFunc("/api/events", s.listEvents).Methods("GET")
	s.router.HandleFunc("/api/health", s.getHealth).Methods("GET")
	if s.registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
}

// Start starts the API server.
func (s *Server) Start() error {
	log.Infof("API server listening on %s", s.addr)
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.router,
	}
	return s.server.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the server's HTTP handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

type proposalView struct {
	ID           string      `json:"id"`
	Proposer     string      `json:"proposer"`
	Type         string      `json:"type"`
	Description  string      `json:"description"`
	Payload      interface{} `json:"payload,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	Deadline     time.Time   `json:"deadline"`
	SnapshotID   uint64      `json:"snapshot_id"`
	YesVotes     string      `json:"yes_votes"`
	NoVotes      string      `json:"no_votes"`
	AbstainVotes string      `json:"abstain_votes"`
	StakedAmount string      `json:"staked_amount"`
	Executed     bool        `json:"executed"`
	Canceled     bool        `json:"canceled"`
	Refunded     bool        `json:"stake_refunded"`
	Queued       bool        `json:"queued"`
	Handle       string      `json:"timelock_handle,omitempty"`
	Status       string      `json:"status"`
}

type callPayloadView struct {
	Target string        `json:"target"`
	Data   hexutil.Bytes `json:"data"`
}

type transferPayloadView struct {
	Token     string `json:"token,omitempty"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

type paramChangePayloadView struct {
	VotingDurationSeconds *int64 `json:"voting_duration_seconds,omitempty"`
	Quorum                string `json:"quorum,omitempty"`
	StakeAmount           string `json:"stake_amount,omitempty"`
	ProposalThreshold     string `json:"proposal_threshold,omitempty"`
}

func payloadView(payload gov.Payload) interface{} {
	switch p := payload.(type) {
	case gov.CallPayload:
		return callPayloadView{Target: p.Target.Hex(), Data: p.Data}
	case gov.TransferPayload:
		return transferPayloadView{Recipient: p.Recipient.Hex(), Amount: p.Amount.String()}
	case gov.ExternalTransferPayload:
		return transferPayloadView{
			Token:     p.Token.Hex(),
			Recipient: p.Recipient.Hex(),
			Amount:    p.Amount.String(),
		}
	case gov.ParamChangePayload:
		view := paramChangePayloadView{}
		if p.VotingDuration != nil {
			seconds := int64(*p.VotingDuration / time.Second)
			view.VotingDurationSeconds = &seconds
		}
		if p.Quorum != nil {
			view.Quorum = p.Quorum.String()
		}
		if p.StakeAmount != nil {
			view.StakeAmount = p.StakeAmount.String()
		}
		if p.ProposalThreshold != nil {
			view.ProposalThreshold = p.ProposalThreshold.String()
		}
		return view
	default:
		return nil
	}
}

func (s *Server) proposalToView(p *gov.Proposal) proposalView {
	status := "unknown"
	if st, err := s.engine.State(p.ID); err == nil {
		status = st.String()
	}
	return proposalView{
		ID:           p.ID,
		Proposer:     p.Proposer.Hex(),
		Type:         string(p.Type),
		Description:  p.Description,
		Payload:      payloadView(p.Payload),
		CreatedAt:    p.CreatedAt,
		Deadline:     p.Deadline,
		SnapshotID:   p.SnapshotID,
		YesVotes:     p.YesVotes.String(),
		NoVotes:      p.NoVotes.String(),
		AbstainVotes: p.AbstainVotes.String(),
		StakedAmount: p.StakedAmount.String(),
		Executed:     p.Executed,
		Canceled:     p.Canceled,
		Refunded:     p.StakeRefunded,
		Queued:       p.Queued,
		Handle:       p.TimelockHandle,
		Status:       status,
	}
}

func (s *Server) listProposals(w http.ResponseWriter, r *http.Request) {
	proposals, err := s.engine.Proposals()
	if err != nil {
		respondWithError(w, err)
		return
	}
	views := make([]proposalView, 0, len(proposals))
	for _, p := range proposals {
		views = append(views, s.proposalToView(p))
	}
	respondWithJSON(w, http.StatusOK, views)
}

func (s *Server) getProposal(w http.ResponseWriter, r *http.Request) {
	proposal, err := s.engine.Proposal(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, s.proposalToView(proposal))
}

func (s *Server) getProposalState(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.State(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": status.String()})
}

func (s *Server) listVotes(w http.ResponseWriter, r *http.Request) {
	votes, err := s.engine.Votes(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, err)
		return
	}
	type voteView struct {
		Voter  string    `json:"voter"`
		Choice string    `json:"choice"`
		Weight string    `json:"weight"`
		Time   time.Time `json:"time"`
	}
	views := make([]voteView, 0, len(votes))
	for _, v := range votes {
		views = append(views, voteView{
			Voter:  v.Voter.Hex(),
			Choice: v.Choice.String(),
			Weight: v.Weight.String(),
			Time:   v.Time,
		})
	}
	respondWithJSON(w, http.StatusOK, views)
}

type createProposalRequest struct {
	Proposer    string          `json:"proposer"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Payload     json.RawMessage `json:"payload"`
}

func (s *Server) createProposal(w http.ResponseWriter, r *http.Request) {
	var req createProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	proposer, err := parseAddress(req.Proposer)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	proposalType := gov.ProposalType(req.Type)
	payload, err := decodePayload(proposalType, req.Payload)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	id, err := s.engine.CreateProposal(proposer, proposalType, payload, req.Description)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// decodePayload decodes a request payload for the declared proposal type.
func decodePayload(proposalType gov.ProposalType, raw json.RawMessage) (gov.Payload, error) {
	switch proposalType {
	case gov.ProposalTypeGeneral:
		var view callPayloadView
		if err := json.Unmarshal(raw, &view); err != nil {
			return nil, fmt.Errorf("invalid call payload: %v", err)
		}
		target, err := parseAddress(view.Target)
		if err != nil {
			return nil, err
		}
		return gov.CallPayload{Target: target, Data: view.Data}, nil
	case gov.ProposalTypeWithdrawal, gov.ProposalTypeTokenTransfer,
		gov.ProposalTypeTokenMint, gov.ProposalTypeTokenBurn:
		var view transferPayloadView
		if err := json.Unmarshal(raw, &view); err != nil {
			return nil, fmt.Errorf("invalid transfer payload: %v", err)
		}
		recipient, err := parseAddress(view.Recipient)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(view.Amount)
		if err != nil {
			return nil, err
		}
		return gov.TransferPayload{Recipient: recipient, Amount: amount}, nil
	case gov.ProposalTypeExternalTokenTransfer:
		var view transferPayloadView
		if err := json.Unmarshal(raw, &view); err != nil {
			return nil, fmt.Errorf("invalid transfer payload: %v", err)
		}
		token, err := parseAddress(view.Token)
		if err != nil {
			return nil, err
		}
		recipient, err := parseAddress(view.Recipient)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(view.Amount)
		if err != nil {
			return nil, err
		}
		return gov.ExternalTransferPayload{Token: token, Recipient: recipient, Amount: amount}, nil
	case gov.ProposalTypeGovernanceChange:
		var view paramChangePayloadView
		if err := json.Unmarshal(raw, &view); err != nil {
			return nil, fmt.Errorf("invalid parameter change payload: %v", err)
		}
		var payload gov.ParamChangePayload
		if view.VotingDurationSeconds != nil {
			d := time.Duration(*view.VotingDurationSeconds) * time.Second
			payload.VotingDuration = &d
		}
		if view.Quorum != "" {
			quorum, err := parseAmount(view.Quorum)
			if err != nil {
				return nil, err
			}
			payload.Quorum = quorum
		}
		if view.StakeAmount != "" {
			stake, err := parseAmount(view.StakeAmount)
			if err != nil {
				return nil, err
			}
			payload.StakeAmount = stake
		}
		if view.ProposalThreshold != "" {
			threshold, err := parseAmount(view.ProposalThreshold)
			if err != nil {
				return nil, err
			}
			payload.ProposalThreshold = threshold
		}
		return payload, nil
	case gov.ProposalTypeSignaling:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown proposal type %q", proposalType)
	}
}

type voteRequest struct {
	Voter  string `json:"voter"`
	Choice string `json:"choice"`
}

func (s *Server) castVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	voter, err := parseAddress(req.Voter)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	choice, err := parseChoice(req.Choice)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	weight, err := s.engine.CastVote(voter, mux.Vars(r)["id"], choice)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"weight": weight.String()})
}

type callerRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) withCaller(w http.ResponseWriter, r *http.Request, fn func(caller common.Address) error) {
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := fn(caller); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

func (s *Server) cancelProposal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.withCaller(w, r, func(caller common.Address) error {
		return s.engine.Cancel(id, caller)
	})
}

func (s *Server) queueProposal(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	handle, err := s.engine.Queue(mux.Vars(r)["id"], caller)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"handle": handle})
}

func (s *Server) executeProposal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.withCaller(w, r, func(caller common.Address) error {
		return s.engine.Execute(id, caller)
	})
}

func (s *Server) claimRefund(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	amount, err := s.engine.ClaimPartialRefund(mux.Vars(r)["id"], caller)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"amount": amount.String()})
}

func (s *Server) getParams(w http.ResponseWriter, r *http.Request) {
	params := s.engine.Params()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"voting_duration_seconds": int64(params.VotingDuration / time.Second),
		"quorum":                  params.Quorum.String(),
		"stake_amount":            params.StakeAmount.String(),
		"proposal_threshold":      params.ProposalThreshold.String(),
		"defeated_refund_pct":     params.DefeatedRefundPct,
		"canceled_refund_pct":     params.CanceledRefundPct,
		"expired_refund_pct":      params.ExpiredRefundPct,
	})
}

type updateParamRequest struct {
	Caller string `json:"caller"`
	Value  string `json:"value"`
}

func (s *Server) updateParam(w http.ResponseWriter, r *http.Request) {
	var req updateParamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	param, err := parseParam(mux.Vars(r)["param"])
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	value, err := parseAmount(req.Value)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.engine.UpdateParam(caller, param, value); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

func (s *Server) listRoleMembers(w http.ResponseWriter, r *http.Request) {
	role, err := parseRole(mux.Vars(r)["role"])
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	members := s.engine.RoleMembers(role)
	views := make([]string, 0, len(members))
	for _, member := range members {
		views = append(views, member.Hex())
	}
	respondWithJSON(w, http.StatusOK, views)
}

type roleRequest struct {
	Caller  string `json:"caller"`
	Account string `json:"account"`
}

func (s *Server) grantRole(w http.ResponseWriter, r *http.Request) {
	s.changeRole(w, r, s.engine.GrantRole)
}

func (s *Server) revokeRole(w http.ResponseWriter, r *http.Request) {
	s.changeRole(w, r, s.engine.RevokeRole)
}

func (s *Server) changeRole(w http.ResponseWriter, r *http.Request, change func(common.Address, gov.Role, common.Address) error) {
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	role, err := parseRole(mux.Vars(r)["role"])
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := change(caller, role, account); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

func (s *Server) pause(w http.ResponseWriter, r *http.Request) {
	s.withCaller(w, r, s.engine.Pause)
}

func (s *Server) unpause(w http.ResponseWriter, r *http.Request) {
	s.withCaller(w, r, s.engine.Unpause)
}

func (s *Server) getPaused(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]bool{"paused": s.engine.Paused()})
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		respondWithJSON(w, http.StatusOK, []events.Entry{})
		return
	}
	respondWithJSON(w, http.StatusOK, s.events.History())
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"paused": s.engine.Paused(),
		"time":   time.Now(),
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("Failed to marshal response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError maps an engine error onto an HTTP status via its kind.
func respondWithError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch gov.Classify(err) {
	case gov.KindValidation:
		code = http.StatusBadRequest
	case gov.KindAuthorization:
		code = http.StatusForbidden
	case gov.KindNotFound:
		code = http.StatusNotFound
	case gov.KindState, gov.KindResource:
		code = http.StatusConflict
	case gov.KindIntegration:
		code = http.StatusBadGateway
	}
	respondWithJSON(w, code, errorResponse{Error: err.Error()})
}

func parseAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid address %q", value)
	}
	return common.HexToAddress(value), nil
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func parseChoice(value string) (gov.VoteChoice, error) {
	switch value {
	case "for":
		return gov.VoteFor, nil
	case "against":
		return gov.VoteAgainst, nil
	case "abstain":
		return gov.VoteAbstain, nil
	default:
		return 0, errors.New("choice must be one of for, against, abstain")
	}
}

func parseParam(value string) (gov.ParamID, error) {
	for _, id := range []gov.ParamID{
		gov.ParamVotingDuration, gov.ParamQuorum, gov.ParamStakeAmount,
		gov.ParamProposalThreshold, gov.ParamDefeatedRefundPct,
		gov.ParamCanceledRefundPct, gov.ParamExpiredRefundPct,
	} {
		if id.String() == value {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown parameter %q", value)
}

func parseRole(value string) (gov.Role, error) {
	switch value {
	case "admin":
		return gov.RoleAdmin, nil
	case "guardian":
		return gov.RoleGuardian, nil
	default:
		return 0, fmt.Errorf("unknown role %q", value)
	}
}
