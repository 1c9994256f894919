package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bcicen/jstream"
)

// DockerProgressWriter condenses the JSON progress stream emitted by the
// docker image pull API into occasional one-line status updates.
type DockerProgressWriter struct {
	reader      io.Reader
	verb        string
	created     time.Time
	lastWritten time.Time
	status      string
	lastStatus  string
	writer      io.Writer
}

func NewDockerProgressWriter(reader io.Reader, writer io.Writer, verb string) *DockerProgressWriter {
	return &DockerProgressWriter{
		verb:        verb,
		reader:      reader,
		created:     time.Now(),
		lastWritten: time.Now().Add(-time.Second * 5),
		writer:      writer,
		status:      "",
		lastStatus:  "",
	}
}

func (pr *DockerProgressWriter) Write(p []byte) (int, error) {
	d := jstream.NewDecoder(pr.reader, 0)

	for mv := range d.Stream() {
		m, ok := mv.Value.(map[string]interface{})

		if ok && m["status"] != nil {
			pr.status = m["status"].(string)
			pr.printProgress()
		}
	}
	return int(d.Pos()), nil
}

func (pr *DockerProgressWriter) printProgress() error {
	elapsed := time.Since(pr.lastWritten)
	var err error
	if elapsed.Seconds() >= 5 || pr.status != pr.lastStatus {
		pr.lastWritten = time.Now()
		pr.lastStatus = pr.status
		_, err = fmt.Fprintf(pr.writer, "Still %s... (%s) %s\n", pr.verb, pr.status, Bold(fmt.Sprintf("[%s elapsed]", time.Since(pr.created).Round(time.Second).String())))
	}
	return err
}

func (pr *DockerProgressWriter) Close() error {
	_, err := fmt.Fprintf(pr.writer, "Completed %s in %s\n", pr.verb, Bold(fmt.Sprintf("[%s elapsed]", time.Since(pr.created).Round(time.Second).String())))
	return err
}
