package cli

import (
	"fmt"

	"github.com/julianstephens/habitline/internal/constants"
)

type NoteCmd struct {
	Set  NoteSetCmd  `cmd:"" help:"Remember a fact about yourself."`
	Get  NoteGetCmd  `cmd:"" help:"Recall a remembered fact."`
	List NoteListCmd `cmd:"" help:"List everything remembered."`
}

type NoteSetCmd struct {
	Key   string `arg:"" help:"Note key, e.g. wake_time."`
	Value string `arg:"" help:"Note value."`
}

func (c *NoteSetCmd) Run(ctx *Context) error {
	note, err := ctx.Store.SetNote(c.Key, c.Value)
	if err != nil {
		return err
	}
	fmt.Printf("Remembered %s\n", note.Key)
	return nil
}

type NoteGetCmd struct {
	Key string `arg:"" help:"Note key."`
}

func (c *NoteGetCmd) Run(ctx *Context) error {
	note, err := ctx.Store.GetNote(c.Key)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", note.Key, note.Value)
	return nil
}

type NoteListCmd struct{}

func (c *NoteListCmd) Run(ctx *Context) error {
	notes, err := ctx.Store.ListNotes()
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		fmt.Println("Nothing remembered yet.")
		return nil
	}
	for _, n := range notes {
		fmt.Printf("%s: %s  (updated %s)\n", n.Key, n.Value, n.UpdatedAt.Local().Format(constants.DateFormat))
	}
	return nil
}
