package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/roomkeeper/internal/client/api"
	"github.com/dmitrijs2005/roomkeeper/internal/common"
)

// Join requests a join credential and prints it with the channel to use.
// An empty room id joins the server's default channel.
func (a *App) Join(ctx context.Context) error {
	roomID, err := getSimpleText(a.reader, "Room id (empty for the lobby)", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Display name", a.out)
	if err != nil {
		return err
	}
	gender, err := getSimpleText(a.reader, "Gender (male, female, host)", a.out)
	if err != nil {
		return err
	}
	isHost, err := getYesNo(a.reader, "Join as host?", a.out)
	if err != nil {
		return err
	}

	req := api.JoinRequest{RoomID: roomID, ParticipantName: name, Gender: gender, IsHost: isHost}

	if roomID != "" {
		pw, err := getPassword("Room password (empty if none)", a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(pw)
		req.RoomPassword = string(pw)
	}

	res, err := a.api.Join(ctx, req)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.LockedUntil != nil {
			a.printf("Locked out until %s\n", apiErr.LockedUntil.Local().Format("15:04:05"))
		}
		return a.report(err)
	}

	a.printf("Channel:    %s\n", res.Channel)
	if res.ServerURL != "" {
		a.printf("Server:     %s\n", res.ServerURL)
	}
	a.printf("Credential: %s\n", res.Credential)
	if res.E2EEKey != "" {
		a.printf("E2EE key:   %s\n", res.E2EEKey)
	}
	return nil
}
