package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ans/internal/core/anserr"
	"github.com/colonyops/ans/internal/core/notification"
	"github.com/colonyops/ans/internal/core/slot"
	"github.com/colonyops/ans/internal/printer"
	"github.com/colonyops/ans/pkg/iojson"
)

type PublishCmd struct {
	flags *Flags
	input iojson.FileReader[notification.Request]

	id          int
	label       string
	slotType    string
	title       string
	text        string
	group       string
	template    string
	autoDelete  time.Duration
	unremovable bool
	alertOnce   bool
	asUser      int
	json        bool
}

// NewPublishCmd creates a new publish command.
func NewPublishCmd(flags *Flags) *PublishCmd {
	return &PublishCmd{flags: flags, asUser: -1}
}

// Register adds the publish command to the application.
func (cmd *PublishCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "publish",
		Aliases:   []string{"pub"},
		Usage:     "Publish a notification",
		UsageText: "ans publish --id <id> --title <title> --text <text> [options]",
		Description: `Publishes a notification for the calling bundle.

Publishing the same id and label again replaces the active notification in
place. --title and --text go together. Without --title the request is read as JSON from --file or stdin.

Examples:
  ans publish --id 1 --title "Build" --text "Build finished"
  ans publish --id 2 --slot social_communication --title "Alice" --text "Hi"
  ans publish -f request.json
  echo '{"id":3,"content":{"contentType":0,"normal":{"title":"t","text":"x"}}}' | ans publish`,
		Flags: []cli.Flag{
			cmd.input.Flag(),
			&cli.IntFlag{Name: "id", Usage: "notification id", Destination: &cmd.id},
			&cli.StringFlag{Name: "label", Usage: "notification label", Destination: &cmd.label},
			&cli.StringFlag{Name: "slot", Usage: "slot type (social_communication, service_information, content_information, other)", Value: "other", Destination: &cmd.slotType},
			&cli.StringFlag{Name: "title", Usage: "notification title", Destination: &cmd.title},
			&cli.StringFlag{Name: "text", Usage: "notification text", Destination: &cmd.text},
			&cli.StringFlag{Name: "group", Usage: "group name", Destination: &cmd.group},
			&cli.StringFlag{Name: "template", Usage: "template name", Destination: &cmd.template},
			&cli.DurationFlag{Name: "auto-delete", Usage: "remove the notification after this duration", Destination: &cmd.autoDelete},
			&cli.BoolFlag{Name: "unremovable", Usage: "refuse removal by the system", Destination: &cmd.unremovable},
			&cli.BoolFlag{Name: "alert-once", Usage: "only alert on the first publish", Destination: &cmd.alertOnce},
			&cli.IntFlag{Name: "as-user", Usage: "publish for another user id", Value: -1, Destination: &cmd.asUser},
			&cli.BoolFlag{Name: "json", Usage: "print the published request as JSON", Destination: &cmd.json},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *PublishCmd) request(stdin io.Reader) (notification.Request, error) {
	if cmd.title == "" {
		return cmd.input.Read(stdin)
	}
	if cmd.text == "" {
		return notification.Request{}, anserr.InvalidParam("--text is required with --title")
	}

	t, err := slot.ParseType(cmd.slotType)
	if err != nil {
		return notification.Request{}, err
	}

	req := notification.Request{
		ID:            int32(cmd.id),
		Label:         cmd.label,
		SlotType:      t,
		Content:       notification.Text(cmd.title, cmd.text),
		GroupName:     cmd.group,
		IsUnremovable: cmd.unremovable,
		IsAlertOnce:   cmd.alertOnce,
	}
	if cmd.template != "" {
		req.Template = &notification.Template{Name: cmd.template}
	}
	if cmd.autoDelete > 0 {
		req.AutoDeletedTime = time.Now().Add(cmd.autoDelete)
	}
	return req, nil
}

func (cmd *PublishCmd) run(ctx context.Context, c *cli.Command) error {
	req, err := cmd.request(c.Root().Reader)
	if err != nil {
		return err
	}

	svc := cmd.flags.App.Service
	published, err := call(ctx, cmd.flags, func(ctx context.Context) (notification.Request, error) {
		if cmd.asUser >= 0 {
			return svc.PublishAsUser(ctx, req, int32(cmd.asUser))
		}
		return svc.Publish(ctx, req)
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	if cmd.json {
		return writeJSON(c, published)
	}

	printer.Ctx(ctx).Successf("published %s", published.HashCode)
	return nil
}
