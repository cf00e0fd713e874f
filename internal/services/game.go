package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"treasure-hunt-backend/internal/grid"
	"treasure-hunt-backend/internal/models"
	"treasure-hunt-backend/internal/oracle"
	"treasure-hunt-backend/internal/telemetry"
)

// Winners receive PayoutNumerator/PayoutDenominator of the pool, rounded down.
const (
	PayoutNumerator   = 9
	PayoutDenominator = 10
)

type EngineConfig struct {
	EntryFee int64
	// Seed drives starting cells. Empty means a fresh random seed.
	Seed string
	// InitialTreasure overrides the seeded starting cell of the treasure.
	InitialTreasure *grid.Position
	// AutoPayout pays a player as soon as they share the treasure's cell.
	AutoPayout bool
	// AutoMoveTreasure requests a generic treasure move after each entry and
	// player move when none is pending.
	AutoMoveTreasure bool
}

type GameEngine struct {
	mu sync.Mutex

	cfg         EngineConfig
	seed        string
	oracle      oracle.Port
	payer       Payer
	store       StateStore
	recorder     Recorder
	transactions TransactionLog
	broadcaster  Broadcaster
	tracer       trace.Tracer
	now          func() time.Time

	players     *PlayerRegistry
	treasure    *TreasureState
	balance     int64
	lastRequest oracle.RequestID
}

func NewGameEngine(cfg EngineConfig, port oracle.Port, payer Payer) *GameEngine {
	seed := cfg.Seed
	if seed == "" {
		seed = generateSeed()
	}

	ge := &GameEngine{
		cfg:     cfg,
		seed:    seed,
		oracle:  port,
		payer:   payer,
		tracer:  telemetry.Tracer("engine"),
		now:     time.Now,
		players: NewPlayerRegistry(),
	}

	start := ge.derivePosition("treasure")
	if cfg.InitialTreasure != nil && grid.Valid(*cfg.InitialTreasure) {
		start = *cfg.InitialTreasure
	}
	ge.treasure = NewTreasureState(start)

	return ge
}

func generateSeed() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		panic(fmt.Sprintf("failed to generate game seed: %v", err))
	}
	return hex.EncodeToString(bytes)
}

// SeedHash publishes the seed commitment so starting cells can be audited.
func (ge *GameEngine) SeedHash() string {
	hash := sha256.Sum256([]byte(ge.seed))
	return hex.EncodeToString(hash[:])
}

func (ge *GameEngine) derivePosition(label string) grid.Position {
	h := hmac.New(sha256.New, []byte(ge.seed))
	h.Write([]byte(label))
	return grid.Normalize(binary.BigEndian.Uint64(h.Sum(nil)[:8]))
}

// StartPosition is the cell account is placed on when it enters.
func (ge *GameEngine) StartPosition(account string) grid.Position {
	return ge.derivePosition("start:" + account)
}

func (ge *GameEngine) SetStore(store StateStore) {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	ge.store = store
}

func (ge *GameEngine) SetRecorder(recorder Recorder) {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	ge.recorder = recorder
}

// SetTransactionLog records entry fees and payouts as they happen.
func (ge *GameEngine) SetTransactionLog(transactions TransactionLog) {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	ge.transactions = transactions
}

func (ge *GameEngine) SetBroadcaster(broadcaster Broadcaster) {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	ge.broadcaster = broadcaster
}

func (ge *GameEngine) EntryFee() int64 {
	return ge.cfg.EntryFee
}

func (ge *GameEngine) OracleID() string {
	return ge.oracle.ID()
}

func (ge *GameEngine) Participate(ctx context.Context, account string, feePaid int64) (models.Player, error) {
	ctx, span := ge.tracer.Start(ctx, "engine.Participate", trace.WithAttributes(
		attribute.String("account", account),
		attribute.Int64("fee_paid", feePaid),
	))
	defer span.End()

	if account == "" {
		return models.Player{}, telemetry.Fail(span, fmt.Errorf("account is required"))
	}

	ge.mu.Lock()
	defer ge.mu.Unlock()

	if feePaid < ge.cfg.EntryFee {
		return models.Player{}, telemetry.Fail(span, fmt.Errorf("%w: paid %d, need %d", ErrInsufficientFee, feePaid, ge.cfg.EntryFee))
	}
	if ge.players.IsParticipant(account) {
		return models.Player{}, telemetry.Fail(span, ErrAlreadyParticipating)
	}

	player := ge.players.Add(account, ge.StartPosition(account), feePaid, ge.now())
	before := ge.balance
	ge.balance += feePaid

	ge.recordTransactionLocked(ctx, &models.Transaction{
		ID:            models.GenerateTransactionID(),
		Account:       account,
		Type:          models.TransactionTypeEntryFee,
		Amount:        feePaid,
		BalanceBefore: before,
		BalanceAfter:  ge.balance,
		Description:   "Entered the treasure hunt",
		CreatedAt:     ge.now(),
	})

	event := models.NewGameEvent(models.EventParticipated)
	event.Account = account
	event.To = &player.Position
	event.Amount = feePaid
	ge.emit(ctx, event)

	if ge.cfg.AutoMoveTreasure {
		ge.autoMoveTreasureLocked(ctx)
	}

	ge.persistLocked(ctx)

	span.SetAttributes(attribute.Int("position", int(player.Position)))
	return player, nil
}

func (ge *GameEngine) IsParticipant(account string) bool {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	return ge.players.IsParticipant(account)
}

func (ge *GameEngine) PositionOf(account string) (grid.Position, error) {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	return ge.players.PositionOf(account)
}

func (ge *GameEngine) Player(account string) (models.Player, error) {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	return ge.players.Get(account)
}

// IsWinner reports whether account is a participant on the treasure's cell.
func (ge *GameEngine) IsWinner(account string) bool {
	ge.mu.Lock()
	defer ge.mu.Unlock()

	pos, err := ge.players.PositionOf(account)
	return err == nil && pos == ge.treasure.Position()
}

func (ge *GameEngine) MakeMove(ctx context.Context, account string, dir grid.Direction) (*models.MoveResult, error) {
	ctx, span := ge.tracer.Start(ctx, "engine.MakeMove", trace.WithAttributes(
		attribute.String("account", account),
		attribute.String("direction", dir.String()),
	))
	defer span.End()

	ge.mu.Lock()
	defer ge.mu.Unlock()

	from, to, err := ge.players.Move(account, dir)
	if err != nil {
		return nil, telemetry.Fail(span, err)
	}

	event := models.NewGameEvent(models.EventPlayerMoved).WithMove(from, to)
	event.Account = account
	ge.emit(ctx, event)

	result := &models.MoveResult{
		Account:   account,
		From:      from,
		To:        to,
		Direction: dir,
		Won:       to == ge.treasure.Position(),
	}

	if result.Won && ge.cfg.AutoPayout {
		prize, err := ge.payLocked(ctx, account)
		if err != nil {
			log.Printf("Auto payout to %s failed: %v", account, err)
		} else {
			result.Prize = prize
		}
	}

	if ge.cfg.AutoMoveTreasure {
		ge.autoMoveTreasureLocked(ctx)
	}

	ge.persistLocked(ctx)
	return result, nil
}

func (ge *GameEngine) MoveTreasureToAdjacent(ctx context.Context, actor models.Actor) (oracle.RequestID, error) {
	return ge.requestTreasureMove(ctx, actor, models.MoveKindAdjacent)
}

func (ge *GameEngine) MoveTreasureToRandom(ctx context.Context, actor models.Actor) (oracle.RequestID, error) {
	return ge.requestTreasureMove(ctx, actor, models.MoveKindRandom)
}

// MoveTreasure requests the move the treasure's current cell calls for.
func (ge *GameEngine) MoveTreasure(ctx context.Context, actor models.Actor) (oracle.RequestID, models.MoveKind, error) {
	if !actor.IsAdmin() {
		return 0, "", ErrNotAuthorized
	}

	ge.mu.Lock()
	defer ge.mu.Unlock()

	kind := KindFor(ge.treasure.Position())
	id, err := ge.requestLocked(ctx, kind)
	if err != nil {
		return 0, "", err
	}
	ge.persistLocked(ctx)
	return id, kind, nil
}

func (ge *GameEngine) requestTreasureMove(ctx context.Context, actor models.Actor, kind models.MoveKind) (oracle.RequestID, error) {
	if !actor.IsAdmin() {
		return 0, ErrNotAuthorized
	}

	ge.mu.Lock()
	defer ge.mu.Unlock()

	id, err := ge.requestLocked(ctx, kind)
	if err != nil {
		return 0, err
	}
	ge.persistLocked(ctx)
	return id, nil
}

func (ge *GameEngine) requestLocked(ctx context.Context, kind models.MoveKind) (oracle.RequestID, error) {
	ctx, span := ge.tracer.Start(ctx, "engine.RequestTreasureMove", trace.WithAttributes(
		attribute.String("kind", string(kind)),
	))
	defer span.End()

	if pending, ok := ge.treasure.Pending(); ok {
		return 0, telemetry.Fail(span, fmt.Errorf("%w: request %d", ErrMoveAlreadyPending, pending.RequestID))
	}

	id, err := ge.oracle.RequestRandom(ctx)
	if err != nil {
		return 0, telemetry.Fail(span, fmt.Errorf("%w: %v", ErrOracleUnavailable, err))
	}
	if id <= ge.lastRequest {
		return 0, telemetry.Fail(span, fmt.Errorf("%w: reissued request id %d (last %d)", ErrOracleUnavailable, id, ge.lastRequest))
	}
	ge.lastRequest = id

	if err := ge.treasure.Begin(id, kind, ge.now()); err != nil {
		return 0, telemetry.Fail(span, err)
	}

	event := models.NewGameEvent(models.EventTreasureRequested)
	event.RequestID = id
	event.Kind = kind
	ge.emit(ctx, event)

	span.SetAttributes(attribute.Int64("request_id", int64(id)))
	return id, nil
}

func (ge *GameEngine) autoMoveTreasureLocked(ctx context.Context) {
	if _, pending := ge.treasure.Pending(); pending {
		return
	}
	if _, err := ge.requestLocked(ctx, KindFor(ge.treasure.Position())); err != nil {
		log.Printf("Automatic treasure move failed: %v", err)
	}
}

// OnRandomDelivered completes the pending treasure move. Only the configured
// oracle may deliver, and only for the request currently pending.
func (ge *GameEngine) OnRandomDelivered(ctx context.Context, source string, id oracle.RequestID, values []uint64) error {
	ctx, span := ge.tracer.Start(ctx, "engine.OnRandomDelivered", trace.WithAttributes(
		attribute.String("source", source),
		attribute.Int64("request_id", int64(id)),
	))
	defer span.End()

	if source != ge.oracle.ID() {
		return telemetry.Fail(span, fmt.Errorf("%w: %q", ErrUnauthorizedSource, source))
	}

	ge.mu.Lock()
	defer ge.mu.Unlock()

	if !ge.treasure.Matches(id) {
		return telemetry.Fail(span, fmt.Errorf("%w: %d", ErrUnknownRequest, id))
	}
	if len(values) == 0 {
		return telemetry.Fail(span, ErrEmptyRandomness)
	}

	from, to, kind, err := ge.treasure.Resolve(id, values[0])
	if err != nil {
		return telemetry.Fail(span, err)
	}

	event := models.NewGameEvent(models.EventTreasureMoved).WithMove(from, to)
	event.RequestID = id
	event.Kind = kind
	ge.emit(ctx, event)

	if ge.cfg.AutoPayout {
		if winners := ge.players.At(to); len(winners) > 0 {
			if _, err := ge.payLocked(ctx, winners[0]); err != nil {
				log.Printf("Auto payout to %s failed: %v", winners[0], err)
			}
		}
	}

	ge.persistLocked(ctx)
	return nil
}

// SendPrize pays account floor(balance*9/10). The caller is responsible for
// the win check.
func (ge *GameEngine) SendPrize(ctx context.Context, actor models.Actor, account string) (*models.Transaction, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAuthorized
	}

	ge.mu.Lock()
	defer ge.mu.Unlock()

	tx, err := ge.payLocked(ctx, account)
	if err != nil {
		return nil, err
	}
	ge.persistLocked(ctx)
	return tx, nil
}

// PrizeFor returns floor(balance*9/10) without overflowing on large pools.
func PrizeFor(balance int64) int64 {
	q, r := balance/PayoutDenominator, balance%PayoutDenominator
	return q*PayoutNumerator + r*PayoutNumerator/PayoutDenominator
}

func (ge *GameEngine) payLocked(ctx context.Context, account string) (*models.Transaction, error) {
	ctx, span := ge.tracer.Start(ctx, "engine.SendPrize", trace.WithAttributes(
		attribute.String("account", account),
		attribute.Int64("balance", ge.balance),
	))
	defer span.End()

	if account == "" {
		return nil, telemetry.Fail(span, fmt.Errorf("account is required"))
	}

	payout := PrizeFor(ge.balance)
	if payout <= 0 {
		return nil, telemetry.Fail(span, ErrEmptyPrizePool)
	}

	txID := models.GenerateTransactionID()
	if err := ge.transfer(ctx, txID, account, payout); err != nil {
		return nil, telemetry.Fail(span, fmt.Errorf("%w: %v", ErrTransferFailed, err))
	}

	before := ge.balance
	ge.balance -= payout

	tx := &models.Transaction{
		ID:            txID,
		Account:       account,
		Type:          models.TransactionTypePrize,
		Amount:        payout,
		BalanceBefore: before,
		BalanceAfter:  ge.balance,
		Description:   fmt.Sprintf("Found the treasure: %s ETH", models.FormatAmount(payout)),
		CreatedAt:     ge.now(),
	}
	ge.recordTransactionLocked(ctx, tx)

	event := models.NewGameEvent(models.EventPrizePaid)
	event.Account = account
	event.Amount = payout
	ge.emit(ctx, event)

	span.SetAttributes(attribute.Int64("payout", payout))
	return tx, nil
}

// transfer pays through an IdempotentPayer when one is configured, retrying
// once under the same transaction id.
func (ge *GameEngine) transfer(ctx context.Context, txID, account string, amount int64) error {
	payer, ok := ge.payer.(IdempotentPayer)
	if !ok {
		return ge.payer.Transfer(ctx, account, amount)
	}

	err := payer.TransferOnce(ctx, txID, account, amount)
	if err != nil && ctx.Err() == nil {
		log.Printf("Retrying payout %s to %s: %v", txID, account, err)
		err = payer.TransferOnce(ctx, txID, account, amount)
	}
	return err
}

func (ge *GameEngine) recordTransactionLocked(ctx context.Context, tx *models.Transaction) {
	if ge.transactions == nil {
		return
	}
	if err := ge.transactions.SaveTransaction(ctx, tx); err != nil {
		log.Printf("Failed to save %s transaction %s: %v", tx.Type, tx.ID, err)
	}
}

// CancelPendingMove returns the treasure to IDLE. A later delivery for the
// cancelled request is rejected as unknown.
func (ge *GameEngine) CancelPendingMove(ctx context.Context, actor models.Actor) (models.PendingMove, error) {
	if !actor.IsAdmin() {
		return models.PendingMove{}, ErrNotAuthorized
	}

	ge.mu.Lock()
	defer ge.mu.Unlock()

	pending, ok := ge.treasure.Clear()
	if !ok {
		return models.PendingMove{}, ErrNoPendingMove
	}

	event := models.NewGameEvent(models.EventRequestCancelled)
	event.Account = actor.Account
	event.RequestID = pending.RequestID
	event.Kind = pending.Kind
	ge.emit(ctx, event)

	ge.persistLocked(ctx)
	return pending, nil
}

// ExpirePendingRequest drops a pending request older than maxAge.
func (ge *GameEngine) ExpirePendingRequest(ctx context.Context, maxAge time.Duration) bool {
	ge.mu.Lock()
	defer ge.mu.Unlock()

	pending, ok := ge.treasure.Pending()
	if !ok || ge.now().Sub(pending.RequestedAt) < maxAge {
		return false
	}
	ge.treasure.Clear()

	event := models.NewGameEvent(models.EventRequestExpired)
	event.RequestID = pending.RequestID
	event.Kind = pending.Kind
	ge.emit(ctx, event)

	ge.persistLocked(ctx)
	log.Printf("Expired treasure request %d (%s) after %s", pending.RequestID, pending.Kind, maxAge)
	return true
}

func (ge *GameEngine) TreasurePosition() grid.Position {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	return ge.treasure.Position()
}

func (ge *GameEngine) PendingRequest() (models.PendingMove, bool) {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	return ge.treasure.Pending()
}

func (ge *GameEngine) Balance() int64 {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	return ge.balance
}

func (ge *GameEngine) IsPrime(pos grid.Position) bool {
	return grid.IsPrime(pos)
}

func (ge *GameEngine) State() models.GameState {
	ge.mu.Lock()
	defer ge.mu.Unlock()

	state := models.GameState{
		Treasure:        ge.treasure.Position(),
		TreasureOnPrime: grid.IsPrime(ge.treasure.Position()),
		Balance:         ge.balance,
		BalanceETH:      models.FormatAmount(ge.balance),
		EntryFee:        ge.cfg.EntryFee,
		EntryFeeETH:     models.FormatAmount(ge.cfg.EntryFee),
		Participants:    ge.players.Count(),
	}
	if pending, ok := ge.treasure.Pending(); ok {
		state.Pending = &pending
	}
	return state
}

func (ge *GameEngine) Snapshot() *models.GameSnapshot {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	return ge.snapshotLocked()
}

func (ge *GameEngine) snapshotLocked() *models.GameSnapshot {
	snapshot := &models.GameSnapshot{
		Treasure:      ge.treasure.Position(),
		Balance:       ge.balance,
		Players:       ge.players.List(),
		LastRequestID: ge.lastRequest,
		UpdatedAt:     ge.now(),
	}
	if pending, ok := ge.treasure.Pending(); ok {
		snapshot.Pending = &pending
	}
	return snapshot
}

// Restore replaces the game state with snapshot. A restored pending request
// stays pending until delivered, cancelled or expired. Ports that implement
// oracle.Resumer are moved past the snapshot's last request id so no id is
// issued twice.
func (ge *GameEngine) Restore(snapshot *models.GameSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if snapshot.Balance < 0 {
		return fmt.Errorf("%w: negative balance %d", ErrInvalidSnapshot, snapshot.Balance)
	}

	ge.mu.Lock()
	defer ge.mu.Unlock()

	players := NewPlayerRegistry()
	if err := players.Restore(snapshot.Players); err != nil {
		return err
	}
	treasure := NewTreasureState(0)
	if err := treasure.restore(snapshot.Treasure, snapshot.Pending); err != nil {
		return err
	}

	last := snapshot.LastRequestID
	if snapshot.Pending != nil && snapshot.Pending.RequestID > last {
		last = snapshot.Pending.RequestID
	}

	ge.players = players
	ge.treasure = treasure
	ge.balance = snapshot.Balance
	if last > ge.lastRequest {
		ge.lastRequest = last
	}
	if resumer, ok := ge.oracle.(oracle.Resumer); ok {
		resumer.Resume(ge.lastRequest)
	}
	return nil
}

func (ge *GameEngine) emit(ctx context.Context, event *models.GameEvent) {
	event.CreatedAt = ge.now()

	if ge.recorder != nil {
		if err := ge.recorder.RecordEvent(ctx, event); err != nil {
			log.Printf("Failed to record %s event: %v", event.Type, err)
		}
	}
	if ge.broadcaster != nil {
		ge.broadcaster.BroadcastEvent(event)
	}
}

func (ge *GameEngine) persistLocked(ctx context.Context) {
	if ge.store == nil {
		return
	}
	if err := ge.store.SaveSnapshot(ctx, ge.snapshotLocked()); err != nil {
		log.Printf("Failed to persist game state: %v", err)
	}
}
