// Package account implements the external-collaborator account store
// from spec.md §3/§9 Non-goals boundary: register/login/resume/update/
// stats/leaderboard against a relational backend, argon2id password
// hashing, and the process-wide session table enforcing
// single-session-per-account.
//
// Grounded on udisondev-la2go's DB-wrapper shape (a thin struct around
// *sql.DB with one method per query) and its goose migration list, with
// the MySQL driver itself pulled from obrien-tchaleu/ludo-king-go.
package account

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/argon2"
)

// Account is spec.md §3's persisted account row.
type Account struct {
	Username string
	Nickname string
	Skin     int
	Squad    string
	IsDev    bool
	IsBanned bool
	Wins     int
	Deaths   int
	Kills    int
	Coins    int
}

var (
	ErrUsernameTaken = errors.New("account: username already registered")
	ErrNicknameTaken = errors.New("account: nickname already taken")
	ErrNotFound      = errors.New("account: no such account")
	ErrBadPassword   = errors.New("account: incorrect password")
	ErrBanned        = errors.New("account: account is banned")
)

const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
	saltBytes     = 60
)

// hashPassword implements spec.md §3's scheme exactly: argon2id over
// utf8(password) ‖ salt, where salt is 64 hex chars (the hex SHA-256
// digest of 60 random bytes).
func hashPassword(password string) (hash, salt string) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		panic("account: reading random salt: " + err.Error())
	}
	sum := sha256.Sum256(raw)
	salt = hex.EncodeToString(sum[:])
	return derive(password, salt), salt
}

func derive(password, salt string) string {
	sum := argon2.IDKey([]byte(password+salt), []byte(salt), argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return hex.EncodeToString(sum)
}

// Store is the MySQL-backed account store.
type Store struct {
	db *sql.DB
}

// Open connects to MySQL via the given DSN (see config.Config.MySQLDSN).
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("account: opening db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("account: pinging db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Register implements spec.md §1's "register" operation: creates an
// account with a fresh argon2id hash, rejecting duplicate usernames or
// (profanity-filtered, externally) nicknames.
func (s *Store) Register(ctx context.Context, username, nickname, password string) (*Account, error) {
	hash, salt := hashPassword(password)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (username, nickname, password_hash, password_salt, skin, squad, is_dev, is_banned, wins, deaths, kills, coins)
		 VALUES (?, ?, ?, ?, 0, '', 0, 0, 0, 0, 0, 0)`,
		username, nickname, hash, salt,
	)
	if err != nil {
		if isDuplicateKey(err, "username") {
			return nil, ErrUsernameTaken
		}
		if isDuplicateKey(err, "nickname") {
			return nil, ErrNicknameTaken
		}
		return nil, fmt.Errorf("account: inserting account: %w", err)
	}

	return &Account{Username: username, Nickname: nickname}, nil
}

// Login implements spec.md §1's "login" operation: verifies the
// password by re-deriving the hash with the stored salt.
func (s *Store) Login(ctx context.Context, username, password string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT nickname, password_hash, password_salt, skin, squad, is_dev, is_banned, wins, deaths, kills, coins
		 FROM accounts WHERE username = ?`, username)

	var a Account
	var hash, salt string
	a.Username = username
	if err := row.Scan(&a.Nickname, &hash, &salt, &a.Skin, &a.Squad, &a.IsDev, &a.IsBanned, &a.Wins, &a.Deaths, &a.Kills, &a.Coins); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("account: querying account: %w", err)
	}

	if derive(password, salt) != hash {
		return nil, ErrBadPassword
	}
	if a.IsBanned {
		return nil, ErrBanned
	}
	return &a, nil
}

// Get loads an account by username, used by Resume.
func (s *Store) Get(ctx context.Context, username string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT nickname, skin, squad, is_dev, is_banned, wins, deaths, kills, coins
		 FROM accounts WHERE username = ?`, username)

	var a Account
	a.Username = username
	if err := row.Scan(&a.Nickname, &a.Skin, &a.Squad, &a.IsDev, &a.IsBanned, &a.Wins, &a.Deaths, &a.Kills, &a.Coins); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("account: querying account: %w", err)
	}
	if a.IsBanned {
		return nil, ErrBanned
	}
	return &a, nil
}

// UpdatePassword changes the stored hash/salt. Per spec.md §9's
// preserved quirk, this deliberately does NOT revoke existing session
// tokens.
func (s *Store) UpdatePassword(ctx context.Context, username, newPassword string) error {
	hash, salt := hashPassword(newPassword)
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, password_salt = ? WHERE username = ?`,
		hash, salt, username)
	if err != nil {
		return fmt.Errorf("account: updating password: %w", err)
	}
	return nil
}

// FlushPlayerStats implements match.StatSink: additive deltas for
// wins/deaths/kills/coins (coins clamped to >= 0), plus isBanned and
// renamed nickname/squad if set (spec.md §5 cancellation semantics).
func (s *Store) FlushPlayerStats(username string, winsDelta, deathsDelta, killsDelta, coinsDelta int, isBanned bool, renamedNickname, squad string) {
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET
			wins = wins + ?,
			deaths = deaths + ?,
			kills = kills + ?,
			coins = GREATEST(0, coins + ?)
		 WHERE username = ?`,
		winsDelta, deathsDelta, killsDelta, coinsDelta, username)
	if err != nil {
		return
	}

	if isBanned {
		s.db.ExecContext(ctx, `UPDATE accounts SET is_banned = 1 WHERE username = ?`, username)
	}
	if renamedNickname != "" {
		s.db.ExecContext(ctx, `UPDATE accounts SET nickname = ? WHERE username = ?`, renamedNickname, username)
	}
	if squad != "" {
		s.db.ExecContext(ctx, `UPDATE accounts SET squad = ? WHERE username = ?`, squad, username)
	}
}

// UpdateProfile persists a player-initiated nickname/skin/squad change
// ("lpr"), distinct from FlushPlayerStats' forced-rename path which
// only fires from a dev admin op.
func (s *Store) UpdateProfile(ctx context.Context, username, nickname string, skin int, squad string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET nickname = ?, skin = ?, squad = ? WHERE username = ?`,
		nickname, skin, squad, username)
	if err != nil {
		if isDuplicateKey(err, "nickname") {
			return ErrNicknameTaken
		}
		return fmt.Errorf("account: updating profile: %w", err)
	}
	return nil
}

// Leaderboard returns the top n accounts by coins, descending.
func (s *Store) Leaderboard(ctx context.Context, n int) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, nickname, skin, squad, is_dev, is_banned, wins, deaths, kills, coins
		 FROM accounts WHERE is_banned = 0 ORDER BY coins DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("account: querying leaderboard: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.Username, &a.Nickname, &a.Skin, &a.Squad, &a.IsDev, &a.IsBanned, &a.Wins, &a.Deaths, &a.Kills, &a.Coins); err != nil {
			return nil, fmt.Errorf("account: scanning leaderboard row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func isDuplicateKey(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") && strings.Contains(msg, column)
}
