package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/channels"
)

// NewPeekCmd создаёт команду неблокирующего чтения сообщений из каналов.
func NewPeekCmd(layerFn func() (channels.Layer, error), outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "peek CHANNEL [CHANNEL...]",
		Short: "Drain pending messages from channels without blocking",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layer, err := layerFn()
			if err != nil {
				return err
			}
			out := outputFn()

			var msgs []peekedMessage
			for limit <= 0 || len(msgs) < limit {
				channel, msg, err := layer.ReceiveMany(cmd.Context(), args, false)
				if err != nil {
					return err
				}
				if channel == "" {
					break
				}
				msgs = append(msgs, peekedMessage{Channel: channel, Message: msg})
			}

			if len(msgs) == 0 {
				out.Success("No pending messages")
				return nil
			}

			out.Messages(msgs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of messages to drain (0 = all)")

	return cmd
}
