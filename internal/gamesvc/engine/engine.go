package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/vediprashant/bluff-api/internal/comm"
	"github.com/vediprashant/bluff-api/internal/gamesvc/card"
	"github.com/vediprashant/bluff-api/internal/gamesvc/models"
)

// Engine is the authoritative session state machine. Every mutating
// operation runs under a per-game lock and commits through one atomic
// store Apply; rejected actions never touch the ledger.
type Engine struct {
	store Store
	locks *lockTable
}

func New(store Store) *Engine {
	return &Engine{store: store, locks: newLockTable()}
}

func (e *Engine) load(ctx context.Context, gameID int64) (*models.Game, []*models.GamePlayer, *models.GameTableSnapshot, error) {
	game, err := e.store.Game(ctx, gameID)
	if err != nil {
		return nil, nil, nil, err
	}
	if game == nil {
		return nil, nil, nil, fmt.Errorf("%w: game %d", ErrGameNotFound, gameID)
	}
	players, err := e.store.Players(ctx, gameID)
	if err != nil {
		return nil, nil, nil, err
	}
	snap, err := e.store.LatestSnapshot(ctx, gameID)
	if err != nil {
		return nil, nil, nil, err
	}
	if snap == nil {
		return nil, nil, nil, fmt.Errorf("game %d has no table snapshot", gameID)
	}
	return game, players, snap, nil
}

// Connect seats and marks a participant connected, idempotently. First
// joins get the next seat number; a reconnect into a started game where
// nobody else is connected pulls the turn back to the reconnecting seat.
// Returns the participant's personalized view of the latest state.
func (e *Engine) Connect(ctx context.Context, gameID, userID int64) (*comm.GameState, error) {
	lock := e.locks.get(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, players, snap, err := e.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	p := playerByUser(players, userID)
	if p == nil {
		return nil, fmt.Errorf("%w: user %d in game %d", ErrNotAParticipant, userID, gameID)
	}

	m := &Mutation{GameID: gameID}
	pu := PlayerUpdate{ID: p.ID}

	if !p.Seated() {
		if game.Started {
			return nil, fmt.Errorf("%w: cannot join after the deal", ErrGameStarted)
		}
		seat := maxSeat(players) + 1
		if seat > MaxSeats {
			return nil, fmt.Errorf("%w: all %d seats taken", ErrGameFull, MaxSeats)
		}
		p.PlayerID = &seat
		pu.Seat = &seat
	}
	if p.Disconnected {
		p.Disconnected = false
		pu.Disconnected = boolPtr(false)
	}
	if pu.Seat != nil || pu.Disconnected != nil {
		m.Players = append(m.Players, pu)
	}

	// Recovery path: everyone left and one player returns.
	if game.Started && game.WinnerID == nil && !anyOtherConnected(players, p) {
		if snap.CurrentUserID == nil || *snap.CurrentUserID != p.ID {
			next := carrySnapshot(snap)
			next.CurrentUserID = int64Ptr(p.ID)
			m.Snapshot = next
			snap = next
		}
	}

	if len(m.Players) > 0 || m.Snapshot != nil {
		if err := e.store.Apply(ctx, m); err != nil {
			return nil, err
		}
	}
	return buildState(game, players, snap, p), nil
}

// Disconnect marks a seat disconnected. When the seat is current-turn in a
// started game the engine first skips on its behalf, in the same
// transaction, so the table never stalls on a gone player.
func (e *Engine) Disconnect(ctx context.Context, gameID, userID int64) error {
	lock := e.locks.get(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, players, snap, err := e.load(ctx, gameID)
	if err != nil {
		return err
	}
	p := playerByUser(players, userID)
	if p == nil {
		return fmt.Errorf("%w: user %d in game %d", ErrNotAParticipant, userID, gameID)
	}

	m := &Mutation{GameID: gameID}
	if game.Started && game.WinnerID == nil && p.Seated() && isCurrentTurn(players, snap, p) {
		m = e.skipMutation(game, players, snap, p)
	}
	m.Players = append(m.Players, PlayerUpdate{ID: p.ID, Disconnected: boolPtr(true)})
	p.Disconnected = true
	return e.store.Apply(ctx, m)
}

// Start deals the table evenly across all seated players and flips the
// game to started. Owner only, exactly once per game.
func (e *Engine) Start(ctx context.Context, gameID, userID int64) error {
	lock := e.locks.get(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, players, snap, err := e.load(ctx, gameID)
	if err != nil {
		return err
	}
	if userID != game.OwnerID {
		return fmt.Errorf("%w: only the owner can start the game", ErrValidation)
	}
	if game.Started {
		return fmt.Errorf("%w: game %d", ErrGameStarted, gameID)
	}

	seatedPlayers := seated(players)
	if len(seatedPlayers) == 0 {
		return fmt.Errorf("%w: nobody has joined game %d", ErrInsufficientPlayers, gameID)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	hands, remainder, err := card.Deal(snap.CardsOnTable, len(seatedPlayers), rng)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInsufficientPlayers, err)
	}

	m := &Mutation{
		GameID: gameID,
		Game:   &GameUpdate{ID: gameID, Started: boolPtr(true)},
	}
	for i, sp := range seatedPlayers {
		hand := hands[i]
		m.Players = append(m.Players, PlayerUpdate{ID: sp.ID, Cards: &hand})
	}

	current := snap.CurrentUserID
	if current == nil {
		if owner := playerByUser(players, game.OwnerID); owner != nil {
			current = int64Ptr(owner.ID)
		}
	}
	m.Snapshot = &models.GameTableSnapshot{
		GameID:        gameID,
		CardsOnTable:  remainder,
		CurrentUserID: current,
	}
	return e.store.Apply(ctx, m)
}

// Play removes the played mask from the actor's hand, stacks it face-down
// on the table under the claimed rank and passes the turn to the next
// connected seat. Emptying the hand does not win yet; the final play must
// survive unchallenged first.
func (e *Engine) Play(ctx context.Context, gameID, userID int64, mask card.Bitset, claimedRank int) error {
	lock := e.locks.get(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, players, snap, err := e.load(ctx, gameID)
	if err != nil {
		return err
	}
	p := playerByUser(players, userID)
	if p == nil {
		return fmt.Errorf("%w: user %d in game %d", ErrNotAParticipant, userID, gameID)
	}
	if !game.Started {
		return fmt.Errorf("%w: game %d", ErrNotStarted, gameID)
	}
	if !p.Seated() || !isCurrentTurn(players, snap, p) {
		return fmt.Errorf("%w: seat of user %d", ErrNotYourTurn, userID)
	}

	layout := card.Layout{Decks: game.Decks}
	if !layout.ValidRank(claimedRank) {
		return fmt.Errorf("%w: claimed rank %d out of range", ErrValidation, claimedRank)
	}
	if mask.IsEmpty() {
		return fmt.Errorf("%w: a play must include at least one card", ErrInvalidMove)
	}
	if !layout.InPlay().Contains(mask) {
		return fmt.Errorf("%w: cards outside the deck in play", ErrInvalidMove)
	}
	if !p.Cards.Contains(mask) {
		return fmt.Errorf("%w: cards not in hand", ErrInvalidMove)
	}

	newHand := p.Cards.Without(mask)
	current := int64Ptr(p.ID)
	if next := nextPlayer(players, *p.PlayerID, true); next != nil {
		current = int64Ptr(next.ID)
	}

	m := &Mutation{
		GameID: gameID,
		Players: []PlayerUpdate{{
			ID:       p.ID,
			Cards:    &newHand,
			NoAction: intPtr(p.NoAction + 1),
		}},
		Snapshot: &models.GameTableSnapshot{
			GameID:        gameID,
			CurrentSet:    intPtr(claimedRank),
			CardsOnTable:  snap.CardsOnTable.Union(mask),
			LastCards:     mask,
			LastUserID:    int64Ptr(p.ID),
			CurrentUserID: current,
		},
	}
	return e.store.Apply(ctx, m)
}

// CallBluff judges the open claim against the whole face-down pile. An
// honest pile goes to the caller, a dishonest one back to its player; the
// judged player wins the game if their hand is empty once the pile moves.
func (e *Engine) CallBluff(ctx context.Context, gameID, userID int64) error {
	lock := e.locks.get(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, players, snap, err := e.load(ctx, gameID)
	if err != nil {
		return err
	}
	p := playerByUser(players, userID)
	if p == nil {
		return fmt.Errorf("%w: user %d in game %d", ErrNotAParticipant, userID, gameID)
	}
	if !game.Started {
		return fmt.Errorf("%w: game %d", ErrNotStarted, gameID)
	}
	if !p.Seated() || !isCurrentTurn(players, snap, p) {
		return fmt.Errorf("%w: seat of user %d", ErrNotYourTurn, userID)
	}
	if snap.LastUserID == nil || snap.CurrentSet == nil {
		return fmt.Errorf("%w: no play to challenge", ErrInvalidMove)
	}
	if *snap.LastUserID == p.ID {
		return fmt.Errorf("%w: cannot challenge your own play", ErrInvalidMove)
	}
	lastP := playerByRowID(players, snap.LastUserID)
	if lastP == nil {
		return fmt.Errorf("last player %d not found in game %d", *snap.LastUserID, gameID)
	}

	layout := card.Layout{Decks: game.Decks}
	honest := layout.AllOfRank(snap.CardsOnTable, *snap.CurrentSet)

	loser := lastP
	nonLoser := p
	if honest {
		loser, nonLoser = p, lastP
	}
	loser.Cards = loser.Cards.Union(snap.CardsOnTable)

	newSnap := &models.GameTableSnapshot{
		GameID:          gameID,
		CurrentUserID:   int64Ptr(nonLoser.ID),
		BluffCallerID:   int64Ptr(p.ID),
		BluffSuccessful: boolPtr(!honest),
	}

	m := &Mutation{GameID: gameID, Snapshot: newSnap}
	if loser.ID == p.ID {
		loserHand := loser.Cards
		m.Players = append(m.Players, PlayerUpdate{
			ID:       p.ID,
			Cards:    &loserHand,
			NoAction: intPtr(p.NoAction + 1),
		})
	} else {
		loserHand := loser.Cards
		m.Players = append(m.Players,
			PlayerUpdate{ID: loser.ID, Cards: &loserHand},
			PlayerUpdate{ID: p.ID, NoAction: intPtr(p.NoAction + 1)},
		)
	}

	// Only the player whose claim was judged can win here. A caller who
	// happens to hold no cards did not play out their hand.
	if lastP.Cards.IsEmpty() {
		m.Game = &GameUpdate{ID: gameID, WinnerID: int64Ptr(lastP.UserID)}
		newSnap.CurrentUserID = nil
	}
	return e.store.Apply(ctx, m)
}

// Skip passes the turn. When the skip comes back around to the seat that
// played last, the pile is conceded uncontested: it leaves play and that
// seat opens a fresh round.
func (e *Engine) Skip(ctx context.Context, gameID, userID int64) error {
	lock := e.locks.get(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, players, snap, err := e.load(ctx, gameID)
	if err != nil {
		return err
	}
	p := playerByUser(players, userID)
	if p == nil {
		return fmt.Errorf("%w: user %d in game %d", ErrNotAParticipant, userID, gameID)
	}
	if !game.Started {
		return fmt.Errorf("%w: game %d", ErrNotStarted, gameID)
	}
	if !p.Seated() || !isCurrentTurn(players, snap, p) {
		return fmt.Errorf("%w: seat of user %d", ErrNotYourTurn, userID)
	}
	return e.store.Apply(ctx, e.skipMutation(game, players, snap, p))
}

// skipMutation builds the skip transition. Callers hold the game lock and
// have already validated the turn.
func (e *Engine) skipMutation(game *models.Game, players []*models.GamePlayer, snap *models.GameTableSnapshot, p *models.GamePlayer) *Mutation {
	newSnap := &models.GameTableSnapshot{
		GameID:  game.ID,
		DidSkip: boolPtr(true),
	}

	cleared := snap.LastUserID != nil && *snap.LastUserID == p.ID
	var upcoming *models.GamePlayer
	if cleared {
		// Round conceded uncontested: the pile is discarded and the
		// skipper keeps the turn for a fresh round.
		newSnap.CurrentUserID = int64Ptr(p.ID)
		upcoming = p
	} else {
		newSnap.CurrentSet = snap.CurrentSet
		newSnap.CardsOnTable = snap.CardsOnTable
		newSnap.LastCards = snap.LastCards
		newSnap.LastUserID = snap.LastUserID

		adv := nextPlayer(players, *p.PlayerID, true)
		if adv == nil {
			adv = p
		}
		newSnap.CurrentUserID = int64Ptr(adv.ID)

		// The win check looks at all seated players, a disconnected
		// seat with an empty hand still wins.
		upcoming = nextPlayer(players, *p.PlayerID, false)
		if upcoming == nil {
			upcoming = p
		}
	}

	m := &Mutation{
		GameID:   game.ID,
		Players:  []PlayerUpdate{{ID: p.ID, NoAction: intPtr(p.NoAction + 1)}},
		Snapshot: newSnap,
	}
	if game.Started && upcoming.Cards.IsEmpty() {
		m.Game = &GameUpdate{ID: game.ID, WinnerID: int64Ptr(upcoming.UserID)}
		newSnap.CurrentUserID = nil
	}
	return m
}

// StateFor returns the personalized view of the latest state for one
// participant. Reads are lock-free; the ledger is the source of truth.
func (e *Engine) StateFor(ctx context.Context, gameID, userID int64) (*comm.GameState, error) {
	game, players, snap, err := e.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	p := playerByUser(players, userID)
	if p == nil {
		return nil, fmt.Errorf("%w: user %d in game %d", ErrNotAParticipant, userID, gameID)
	}
	return buildState(game, players, snap, p), nil
}

func anyOtherConnected(players []*models.GamePlayer, self *models.GamePlayer) bool {
	for _, p := range players {
		if p.ID != self.ID && p.Seated() && !p.Disconnected {
			return true
		}
	}
	return false
}

// carrySnapshot copies the table fields of snap into a fresh snapshot;
// event fields (bluff, skip) never carry over.
func carrySnapshot(snap *models.GameTableSnapshot) *models.GameTableSnapshot {
	return &models.GameTableSnapshot{
		GameID:        snap.GameID,
		CurrentSet:    snap.CurrentSet,
		CardsOnTable:  snap.CardsOnTable,
		LastCards:     snap.LastCards,
		LastUserID:    snap.LastUserID,
		CurrentUserID: snap.CurrentUserID,
	}
}
