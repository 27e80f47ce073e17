package cli

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/channels"
)

// NewSendCmd создаёт команду публикации сообщения в канал.
func NewSendCmd(layerFn func() (channels.Layer, error), outputFn func() *Output) *cobra.Command {
	var payload string
	var count int

	cmd := &cobra.Command{
		Use:   "send CHANNEL",
		Short: "Publish a message to a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layer, err := layerFn()
			if err != nil {
				return err
			}
			out := outputFn()

			var base channels.Message
			if err := json.Unmarshal([]byte(payload), &base); err != nil {
				return fmt.Errorf("invalid payload: %w", err)
			}

			channel := args[0]
			for i := 0; i < count; i++ {
				msg := make(channels.Message, len(base)+1)
				for k, v := range base {
					msg[k] = v
				}
				msg["id"] = uuid.NewString()

				if err := layer.Send(cmd.Context(), channel, msg); err != nil {
					return fmt.Errorf("send to %s: %w", channel, err)
				}
			}

			out.Success(fmt.Sprintf("Sent %d message(s) to %s", count, channel))
			return nil
		},
	}

	cmd.Flags().StringVar(&payload, "payload", "{}", "Message payload as JSON object")
	cmd.Flags().IntVar(&count, "count", 1, "Number of messages to send")

	return cmd
}
