package room

import "errors"

var (
	ErrRoomNotFound    = errors.New("room_not_found")
	ErrPlayerNotFound  = errors.New("player_not_found")
	ErrHistoryNotFound = errors.New("history_not_found")
	ErrInvalidPIN      = errors.New("invalid_pin")
	ErrRoomFinished    = errors.New("room_finished")
	ErrSlotTaken       = errors.New("slot_taken")
	ErrIdentityHasSlot = errors.New("identity_has_slot")
	ErrNotSlotOwner    = errors.New("not_slot_owner")
	ErrPlayerNotInRoom = errors.New("player_not_in_room")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrNotUndoable     = errors.New("not_undoable")
	ErrOutOfCards      = errors.New("out_of_cards")
	ErrUnauthorized    = errors.New("unauthorized")
)
