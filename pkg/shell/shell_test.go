package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordString(t *testing.T) {
	tests := []struct {
		name string
		word Word
		want string
	}{
		{name: "safe_arg", word: Arg("/opt/app"), want: "/opt/app"},
		{name: "arg_with_space", word: Arg("/opt/my app"), want: "'/opt/my app'"},
		{name: "arg_with_glob", word: Arg("--exclude=*.log"), want: "'--exclude=*.log'"},
		{name: "empty_arg", word: Arg(""), want: "''"},
		{name: "raw", word: Raw("$(cat /tmp/list)"), want: "$(cat /tmp/list)"},
		{name: "double_quoted", word: DoubleQuoted("sudo tar -cf - /opt/app"), want: `"sudo tar -cf - /opt/app"`},
		{name: "assign", word: Assign("--rsync-path", "/usr/bin/sudo /usr/bin/rsync"), want: `--rsync-path="/usr/bin/sudo /usr/bin/rsync"`},
		{name: "double_quoted_escapes", word: DoubleQuoted("tar $(cat f) \"x\""), want: `"tar \$(cat f) \"x\""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.word.String())
		})
	}
}

func TestCommandRendering(t *testing.T) {
	cmd := NewCommand("tar", "xf", "-", "-C", "/backup/my app")

	assert.Equal(t, "tar xf - -C '/backup/my app'", cmd.String())
	assert.Equal(t, []string{"tar", "xf", "-", "-C", "/backup/my app"}, cmd.Argv())

	t.Run("with_does_not_mutate", func(t *testing.T) {
		base := NewCommand("mkdir", "-p")
		extended := base.With(Arg("/a"))
		assert.Len(t, base.Args, 1)
		assert.Equal(t, "mkdir -p /a", extended.String())
	})

	t.Run("redirect", func(t *testing.T) {
		tee := Command{Name: "tee", RedirectOut: "/var/log/mig/rsync.log"}
		assert.Equal(t, "tee > /var/log/mig/rsync.log", tee.String())
	})

	t.Run("assign_argv_is_unquoted", func(t *testing.T) {
		c := Command{Name: "rsync", Args: []Word{Assign("--rsync-path", "/usr/bin/rsync")}}
		assert.Equal(t, []string{"rsync", "--rsync-path=/usr/bin/rsync"}, c.Argv())
	})

	t.Run("raw_word_argv_is_text", func(t *testing.T) {
		c := Command{Name: "tar", Args: []Word{Raw("$(cat /l)")}}
		assert.Equal(t, []string{"tar", "$(cat /l)"}, c.Argv())
	})
}

func TestPipelineAndSequence(t *testing.T) {
	p := Pipeline{
		NewCommand("ssh", "host", "tar -cf - /x"),
		NewCommand("tar", "xf", "-"),
	}
	assert.Equal(t, "ssh host 'tar -cf - /x' | tar xf -", p.String())
	assert.Equal(t, "a ; b ; c", Sequence("a", "b", "c"))
}
