package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wavey/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSongsFetched MsgKind = iota
	MsgSongFetched
	MsgSignedIn
)

type songsResult struct {
	title string
	songs []models.Song
	err   error
}

type songResult struct {
	song *models.Song
	err  error
}

// songsFetchedMsg is the constructor for [MsgSongsFetched]
func songsFetchedMsg(title string, songs []models.Song, err error) Msg {
	return Msg{kind: MsgSongsFetched, data: songsResult{title, songs, err}}
}

// songFetchedMsg is the constructor for [MsgSongFetched]
func songFetchedMsg(song *models.Song, err error) Msg {
	return Msg{kind: MsgSongFetched, data: songResult{song, err}}
}

// signedInMsg is the constructor for [MsgSignedIn]
func signedInMsg(err error) Msg {
	return Msg{kind: MsgSignedIn, data: err}
}
