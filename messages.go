package main

// ClientMessage covers every event a client may send. Type selects the
// action; the remaining fields are filled per type.
type ClientMessage struct {
	Type       string `json:"type"`                 // "createRoom", "joinRoom", "startGame", "getGameState", "clue", "vote", "nextRound"
	Name       string `json:"name,omitempty"`       // createRoom / joinRoom / clue
	Room       string `json:"room,omitempty"`       // everything except createRoom
	Mode       string `json:"mode,omitempty"`       // startGame
	Clue       string `json:"clue,omitempty"`       // clue
	PlayerName string `json:"playerName,omitempty"` // vote
	TargetName string `json:"targetName,omitempty"` // vote
}

// PlayerView is the per-player portion of broadcast snapshots. Roles and
// words are deliberately absent; those travel only in private messages.
type PlayerView struct {
	Name string `json:"name"`
}

// ClueView is one entry of the round's clue log, as shown to clients.
type ClueView struct {
	Name string `json:"name"`
	Clue string `json:"clue"`
}

// Sent only to the creator of a room.
type RoomCreatedMessage struct {
	Type string `json:"type"` // "roomCreated"
	Code string `json:"code"`
}

// Broadcast on every membership change.
type RoomUpdateMessage struct {
	Type    string                `json:"type"` // "roomUpdate"
	Code    string                `json:"code"`
	Host    string                `json:"host"`
	Players map[string]PlayerView `json:"players"`
	Started bool                  `json:"started"`
	Mode    string                `json:"mode"`
	Round   int                   `json:"round"`
}

// Sent only to the client whose request failed.
type GameErrorMessage struct {
	Type    string `json:"type"` // "gameError"
	Message string `json:"message"`
}

// Sent privately to each member on role assignment and state recovery.
type YourRoleMessage struct {
	Type string `json:"type"` // "yourRole"
	Role string `json:"role"`
	Word string `json:"word"`
}

// Broadcast when a round begins.
type RoundStartedMessage struct {
	Type         string                `json:"type"` // "roundStarted"
	Round        int                   `json:"round"`
	Mode         string                `json:"mode"`
	Players      map[string]PlayerView `json:"players"`
	TotalPlayers int                   `json:"totalPlayers"`
}

// Sent privately to each member so the client can enter the game view.
type GameStartedMessage struct {
	Type string `json:"type"` // "gameStarted"
	Mode string `json:"mode"`
	Role string `json:"role"`
	Word string `json:"word"`
}

// Broadcast once per clue submission.
type ClueMessage struct {
	Type string `json:"type"` // "clue"
	Name string `json:"name"`
	Clue string `json:"clue"`
}

// Broadcast after every clue submission with the refreshed tally.
type ClueStatusMessage struct {
	Type         string                `json:"type"` // "clueStatus"
	CluesGiven   int                   `json:"cluesGiven"`
	TotalPlayers int                   `json:"totalPlayers"`
	Players      map[string]PlayerView `json:"players"`
	CluesTaken   map[string]bool       `json:"cluesTaken"`
}

// Broadcast on the transition from clue collection to voting.
type StartVotingMessage struct {
	Type    string                `json:"type"` // "startVoting"
	Players map[string]PlayerView `json:"players"`
	Clues   []ClueView            `json:"clues"`
	Message string                `json:"message"`
}

// Broadcast once per vote.
type VoteUpdateMessage struct {
	Type          string `json:"type"` // "voteUpdate"
	Voter         string `json:"voter"`
	Target        string `json:"target"`
	VotesReceived int    `json:"votesReceived"`
	TotalPlayers  int    `json:"totalPlayers"`
}

// Broadcast when a round resolves.
type RoundResultMessage struct {
	Type             string `json:"type"` // "roundResult"
	Eliminated       string `json:"eliminated"`
	WasSpyEliminated bool   `json:"wasSpyEliminated"`
	Spy              string `json:"spy"`
	Message          string `json:"message"`
	HostID           string `json:"hostId"`
}

// Broadcast in addition to the round result when the spy is eliminated.
type GameOverMessage struct {
	Type             string `json:"type"` // "gameOver"
	Eliminated       string `json:"eliminated"`
	WasSpyEliminated bool   `json:"wasSpyEliminated"`
	Spy              string `json:"spy"`
	Message          string `json:"message"`
}
