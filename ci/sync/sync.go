package sync

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/dropletctl/ci/util"
)

func Test(t *testing.T, helper *util.TestHelper) {
	t.Run("RoundTrip", func(t *testing.T) {
		testRoundTrip(t, helper)
	})
	t.Run("Overwrite", func(t *testing.T) {
		testOverwrite(t, helper)
	})
	t.Run("Watch", func(t *testing.T) {
		testWatch(t, helper)
	})
}

func remoteDir() string {
	return fmt.Sprintf("/root/dropletctl-ci/%s", uuid.New().String()[:8])
}

func testRoundTrip(t *testing.T, helper *util.TestHelper) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	local, err := newMockFs()
	require.NoError(t, err)
	defer local.cleanup()

	require.NoError(t, apply(local,
		createFile(randomFile("README.md")),
		createFile(randomFile("src/main.go")),
		createFile(randomFile("src/pkg/deep/nested/file.txt")),
		createFile(randomFile("with space/it's quoted.txt")),
		createFile(randomFile("empty").WithContents("")),
		createDir("empty-dir"),
	))

	dst := remoteDir()
	_, err = helper.Run(ctx, "upload", helper.Droplet, local.root, dst)
	require.NoError(t, err)

	// Empty directories are uploaded even though nothing is in them.
	out, err := helper.Exec(ctx, "test", "-d", dst+"/empty-dir", "&&", "echo", "ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(out))

	restored, err := newMockFs()
	require.NoError(t, err)
	defer restored.cleanup()

	_, err = helper.Run(ctx, "download", helper.Droplet, dst, restored.path("restored"))
	require.NoError(t, err)

	exp, err := local.snapshot()
	require.NoError(t, err)
	actual, err := mockFs{root: restored.path("restored")}.snapshot()
	require.NoError(t, err)
	assert.Equal(t, exp, actual)
}

func testOverwrite(t *testing.T, helper *util.TestHelper) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	local, err := newMockFs()
	require.NoError(t, err)
	defer local.cleanup()

	refFile := randomFile("config.yml")
	require.NoError(t, apply(local, createFile(refFile.WithContents("a much longer original version"))))

	dst := remoteDir()
	_, err = helper.Exec(ctx, "mkdir", "-p", dst, "&&", "echo", "remote-only", ">", dst+"/remote-only")
	require.NoError(t, err)

	// Uploading twice leaves the remote side the same as uploading once.
	for i := 0; i < 2; i++ {
		require.NoError(t, apply(local, createFile(refFile)))
		_, err = helper.Run(ctx, "upload", helper.Droplet, local.root, dst)
		require.NoError(t, err)
	}

	out, err := helper.Exec(ctx, "cat", dst+"/config.yml")
	require.NoError(t, err)
	assert.Equal(t, refFile.contents+"\n", out)

	out, err = helper.Exec(ctx, "cat", dst+"/remote-only")
	require.NoError(t, err)
	assert.Equal(t, "remote-only\n", out)
}

func testWatch(t *testing.T, helper *util.TestHelper) {
	testCtx, cancelTest := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancelTest()

	local, err := newMockFs()
	require.NoError(t, err)
	defer local.cleanup()
	require.NoError(t, apply(local, createFile(randomFile("initial"))))

	dst := remoteDir()
	watchCtx, cancelWatch := context.WithCancel(testCtx)
	defer cancelWatch()

	stdout, watchErr, err := helper.Start(watchCtx, "upload", "--watch", helper.Droplet, local.root, dst)
	require.NoError(t, err, "start upload --watch")
	go func() {
		if err, ok := <-watchErr; ok && err != nil {
			assert.NoError(t, err, "run upload --watch")
		}
	}()
	require.NoError(t, util.WaitForOutput(testCtx, stdout, []byte("Watching for changes")))

	changed := randomFile("new-dir/changed")
	require.NoError(t, apply(local, createFile(changed)))

	synced := util.TestWithRetry(testCtx, nil, func() bool {
		out, err := helper.Exec(testCtx, "cat", dst+"/new-dir/changed")
		return err == nil && out == changed.contents+"\n"
	})
	assert.True(t, synced, "change should be uploaded")
}
