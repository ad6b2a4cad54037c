package transfer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monshunter/sshxfer/pkg/runner"
)

func baseUpload() UploadParams {
	return UploadParams{
		Connection: Connection{
			Host:     "10.0.0.5",
			Port:     22,
			Username: "deploy",
			KeyFile:  "/keys/id_rsa",
			Sudoer:   SudoerFalse,
		},
		BackupDir: "/data/x",
		LogDir:    "/var/log/mig",
	}
}

func TestBuildUpload(t *testing.T) {
	t.Run("end_to_end_example", func(t *testing.T) {
		plan := BuildUpload(baseUpload())

		assert.Equal(t,
			`rsync -av -H -S -e 'ssh -i /keys/id_rsa -l deploy -p 22 -q -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null' --rsync-path="/usr/bin/rsync" --progress --no-owner --no-group /data/x 10.0.0.5:/ | tee > /var/log/mig/rsync.log`,
			plan.CommandLine())
		assert.Equal(t, "[File Upload Command]", plan.Heading)
		assert.Empty(t, plan.Env)

		stages := plan.Stages()
		require.Len(t, stages, 2)
		assert.Equal(t, []string{
			"rsync", "-av", "-H", "-S",
			"-e", "ssh -i /keys/id_rsa -l deploy -p 22 -q -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null",
			"--rsync-path=/usr/bin/rsync", "--progress", "--no-owner", "--no-group", "/data/x", "10.0.0.5:/",
		}, stages[0].Argv)
		assert.Equal(t, runner.Stage{Argv: []string{"tee"}, StdoutFile: "/var/log/mig/rsync.log"}, stages[1])
	})

	t.Run("log_dir_always_created", func(t *testing.T) {
		plan := BuildUpload(baseUpload())
		require.Len(t, plan.Prepare, 1)
		assert.Equal(t, []string{"sudo", "mkdir", "-p", "/var/log/mig"}, plan.Prepare[0].Argv())
	})

	t.Run("sudo_rsync_path", func(t *testing.T) {
		p := baseUpload()
		p.Sudoer = SudoerTrue
		assert.Contains(t, BuildUpload(p).CommandLine(), `--rsync-path="/usr/bin/sudo /usr/bin/rsync"`)

		p.Username = "root"
		assert.Contains(t, BuildUpload(p).CommandLine(), `--rsync-path="/usr/bin/rsync"`)
	})

	t.Run("password_only", func(t *testing.T) {
		p := baseUpload()
		p.KeyFile = ""
		p.Password = "secret"
		plan := BuildUpload(p)

		assert.Contains(t, plan.CommandLine(), `-e 'sshpass -e ssh -l deploy -p 22 -q -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null'`)
		assert.NotContains(t, plan.CommandLine(), "secret")
		assert.Equal(t, []string{"SSHPASS=secret"}, plan.Env)
		assert.True(t, strings.HasPrefix(plan.Stages()[0].Argv[5], "sshpass -e ssh "))
	})

	t.Run("keyfile_wins_over_password", func(t *testing.T) {
		p := baseUpload()
		p.Password = "secret"
		plan := BuildUpload(p)

		assert.Equal(t, AuthKey, UploadAuth(p.Connection))
		assert.Contains(t, plan.CommandLine(), `-e 'ssh -i /keys/id_rsa -l deploy`)
		assert.NotContains(t, plan.CommandLine(), "sshpass")
		assert.Empty(t, plan.Env)
	})

	t.Run("no_credentials", func(t *testing.T) {
		p := baseUpload()
		p.KeyFile = ""
		assert.Equal(t, AuthDefault, UploadAuth(p.Connection))
		assert.Contains(t, BuildUpload(p).CommandLine(), `-e 'ssh -l deploy -p 22 -q`)
	})

	t.Run("keyfile_with_space", func(t *testing.T) {
		p := baseUpload()
		p.KeyFile = "/my keys/id_rsa"
		plan := BuildUpload(p)

		assert.Equal(t, "ssh -i '/my keys/id_rsa' -l deploy -p 22 -q -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null",
			plan.Transfer[0].Argv()[5])
	})

	t.Run("local_paths", func(t *testing.T) {
		plan := BuildUpload(baseUpload())
		assert.Equal(t, []string{"/data/x", "/var/log/mig", "/var/log/mig/rsync.log"}, plan.LocalPaths)
	})
}

func TestUploadValidate(t *testing.T) {
	assert.NoError(t, baseUpload().Validate())

	p := baseUpload()
	p.BackupDir = ""
	p.LogDir = ""
	err := p.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), `"backup_dir", "log_dir"`)

	p = baseUpload()
	p.Port = 0
	assert.ErrorIs(t, p.Validate(), ErrUsage)
}

func TestUploadCredentials(t *testing.T) {
	p := baseUpload()
	p.Password = "secret"
	conn := UploadCredentials(p.Connection)
	assert.Empty(t, conn.Password)
	assert.Equal(t, "/keys/id_rsa", conn.KeyFile)
	assert.Equal(t, "secret", p.Password)

	p.KeyFile = ""
	assert.Equal(t, "secret", UploadCredentials(p.Connection).Password)
}

func TestAuthMethodString(t *testing.T) {
	assert.Equal(t, "keyfile", AuthKey.String())
	assert.Equal(t, "password", AuthPassword.String())
	assert.Equal(t, "default", AuthDefault.String())
}

func TestUploadTools(t *testing.T) {
	assert.Equal(t, []string{"rsync", "ssh", "tee"}, BuildUpload(baseUpload()).Tools)

	p := baseUpload()
	p.KeyFile = ""
	p.Password = "secret"
	assert.Equal(t, []string{"rsync", "ssh", "tee", "sshpass"}, BuildUpload(p).Tools)
}
