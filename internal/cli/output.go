package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shaiso/Conveyor/internal/channels"
)

// Output управляет форматированием вывода CLI.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// peekedMessage — одно сообщение, снятое командой peek.
type peekedMessage struct {
	Channel string           `json:"channel"`
	Message channels.Message `json:"message"`
}

// Messages выводит снятые с каналов сообщения: таблицу или JSON
// в зависимости от режима.
func (o *Output) Messages(msgs []peekedMessage) {
	if o.jsonMode {
		o.JSON(msgs)
		return
	}
	rows := make([][]string, 0, len(msgs))
	for _, m := range msgs {
		payload, err := json.Marshal(m.Message)
		if err != nil {
			payload = []byte(fmt.Sprintf("%v", m.Message))
		}
		rows = append(rows, []string{m.Channel, string(payload)})
	}
	o.Table([]string{"CHANNEL", "MESSAGE"}, rows)
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}
