package cli

import (
	"context"
	"errors"
	"text/tabwriter"

	"github.com/dmitrijs2005/roomkeeper/internal/client/api"
	"github.com/dmitrijs2005/roomkeeper/internal/common"
)

// getSimpleText, getPassword and getYesNo are swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getYesNo      = GetYesNo
)

const defaultTemplate = "open"

var errPasswordMismatch = errors.New("passwords do not match")

func (a *App) List(ctx context.Context) error {
	rooms, err := a.api.ListRooms(ctx)
	if err != nil {
		return a.report(err)
	}
	if len(rooms) == 0 {
		a.printf("No rooms\n")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	_, _ = tw.Write([]byte("ID\tNAME\tTEMPLATE\tLOCKED\n"))
	for _, r := range rooms {
		locked := "no"
		if r.Locked {
			locked = "yes"
		}
		_, _ = tw.Write([]byte(r.ID + "\t" + r.Name + "\t" + r.Template + "\t" + locked + "\n"))
	}
	return tw.Flush()
}

// Create prompts for a new room. A locked room asks for its password twice.
func (a *App) Create(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Room name", a.out)
	if err != nil {
		return err
	}
	template, err := getSimpleText(a.reader, "Template (brothers-only, sisters-only, mixed-host-required, open) [open]", a.out)
	if err != nil {
		return err
	}
	if template == "" {
		template = defaultTemplate
	}
	creator, err := getSimpleText(a.reader, "Your name", a.out)
	if err != nil {
		return err
	}
	locked, err := getYesNo(a.reader, "Protect with a password?", a.out)
	if err != nil {
		return err
	}

	req := api.CreateRoomRequest{Name: name, Template: template, Creator: creator, Locked: locked}

	if locked {
		pw, err := getPassword("Room password", a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(pw)

		again, err := getPassword("Repeat password", a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(again)

		if string(pw) != string(again) {
			return a.report(errPasswordMismatch)
		}
		req.Password = string(pw)
	}

	room, err := a.api.CreateRoom(ctx, req)
	if err != nil {
		return a.report(err)
	}
	a.printf("Created room %s (%s)\n", room.ID, room.Name)
	return nil
}
