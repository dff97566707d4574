package transfer

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/dropletctl/pkg/errors"
	"github.com/sidkik/dropletctl/pkg/remote"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// Op is a single kind of operation in a Plan.
type Op int

const (
	// MakeDir creates the directory at Step.Target. It's a remote directory
	// in upload plans and a local directory in download plans.
	MakeDir Op = iota

	// PutFile copies the local Step.Source to the remote Step.Target.
	PutFile

	// GetFile copies the remote Step.Source to the local Step.Target.
	GetFile
)

func (op Op) String() string {
	switch op {
	case MakeDir:
		return "mkdir"
	case PutFile:
		return "put"
	case GetFile:
		return "get"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// Direction is which way a Plan moves files.
type Direction int

const (
	// ToRemote plans copy from the local machine to the remote host.
	ToRemote Direction = iota

	// ToLocal plans copy from the remote host to the local machine.
	ToLocal
)

// Step is one operation of a Plan.
type Step struct {
	Op     Op
	Source string
	Target string
}

func (s Step) String() string {
	if s.Op == MakeDir {
		return fmt.Sprintf("%s %s", s.Op, s.Target)
	}
	return fmt.Sprintf("%s %s -> %s", s.Op, s.Source, s.Target)
}

// Plan is the ordered list of operations needed to replicate a directory
// tree. Every directory is created before any step that targets a path inside
// of it.
type Plan struct {
	Direction Direction
	Steps     []Step
}

// Stats summarizes the steps in a plan.
type Stats struct {
	Directories int
	Files       int
}

// Stats counts the directories and files in the plan.
func (p Plan) Stats() (stats Stats) {
	for _, step := range p.Steps {
		if step.Op == MakeDir {
			stats.Directories++
		} else {
			stats.Files++
		}
	}
	return stats
}

func (p *Plan) makeDir(target string) {
	p.Steps = append(p.Steps, Step{Op: MakeDir, Target: target})
}

func (p *Plan) put(localPath, remotePath string) {
	p.Steps = append(p.Steps, Step{Op: PutFile, Source: localPath, Target: remotePath})
}

func (p *Plan) get(remotePath, localPath string) {
	p.Steps = append(p.Steps, Step{Op: GetFile, Source: remotePath, Target: localPath})
}

// Execute runs the steps in order over `ch`. It stops at the first failure
// and returns a TransferError. Steps that already ran aren't undone.
func (p Plan) Execute(ch remote.FileChannel) error {
	for _, step := range p.Steps {
		log.WithField("step", step.String()).Debug("Executing sync step")

		var err error
		switch {
		case step.Op == MakeDir && p.Direction == ToRemote:
			err = ch.MakeDirectory(step.Target)
		case step.Op == MakeDir && p.Direction == ToLocal:
			err = fs.MkdirAll(step.Target, 0755)
		case step.Op == PutFile:
			err = ch.PutFile(step.Source, step.Target)
		case step.Op == GetFile:
			err = ch.GetFile(step.Source, step.Target)
		default:
			err = fmt.Errorf("unknown operation %s", step.Op)
		}

		if err != nil {
			return errors.TransferError{Op: step.Op.String(), Path: step.Target, Err: err}
		}
	}
	return nil
}
