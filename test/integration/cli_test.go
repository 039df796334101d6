package integration

import (
	"crypto/sha256"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"
)

// titlelabBin is the path to the compiled binary, set by TestMain.
var titlelabBin string

func TestMain(m *testing.M) {
	// Build binary once for all tests.
	tmp, err := os.MkdirTemp("", "titlelab-integration-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmp)

	titlelabBin = filepath.Join(tmp, "titlelab")
	cmd := exec.Command("go", "build", "-o", titlelabBin, "./cmd/titlelab/")
	cmd.Dir = findModuleRoot()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// =============================================================================
// Helpers
// =============================================================================

// findModuleRoot walks up from cwd to find go.mod.
func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("go.mod not found")
		}
		dir = parent
	}
}

const exportCSV = `排名,搜索词,搜索人气,点击率,支付转化率
1,菜板,10万~20万,90%,20%
2,家用菜板,5万~10万,80%,15%
3,不锈钢菜板,1万~2万,70%,10%
`

// setupWorkspace creates a temp workspace holding a small keyword export.
// The inbox watcher is disabled so tests control every import.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "export.csv"), exportCSV)
	writeFile(t, filepath.Join(dir, ".titlelab", "config.yaml"), "inbox:\n  enabled: false\n")
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// runTL executes the titlelab binary in the given dir with args, returns stdout, stderr, exit code.
func runTL(t *testing.T, dir string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	cmd := exec.Command(titlelabBin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "NO_COLOR=1", "TITLELAB_HTTP_PORT="+strconv.Itoa(freePort(t)))

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("exec error (not ExitError): %v", err)
		}
	}
	return
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// startDaemon runs `titlelab daemon start` in the background and waits for
// the socket to answer. Returns a cleanup func that stops the daemon.
func startDaemon(t *testing.T, dir string) func() {
	t.Helper()

	cmd := exec.Command(titlelabBin, "daemon", "start")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "NO_COLOR=1", "TITLELAB_HTTP_PORT="+strconv.Itoa(freePort(t)))
	if err := cmd.Start(); err != nil {
		t.Fatalf("daemon start: %v", err)
	}

	sockPath := socketPathForDir(dir)
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, err := net.Dial("unix", sockPath)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			cmd.Process.Kill()
			cmd.Wait()
			t.Fatalf("daemon did not come up at %s", sockPath)
		}
		time.Sleep(50 * time.Millisecond)
	}

	return func() {
		// Graceful stop.
		runTL(t, dir, "daemon", "stop")
		done := make(chan struct{})
		go func() {
			cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			// Safety net: force-kill if still alive.
			cmd.Process.Signal(syscall.SIGKILL)
			<-done
		}
	}
}

// socketPathForDir computes the expected socket path for a directory.
// Replicates internal/adapters/socket.SocketPath logic.
func socketPathForDir(dir string) string {
	abs, _ := filepath.Abs(dir)
	h := sha256.Sum256([]byte(abs))
	return fmt.Sprintf("/tmp/titlelab-%x.sock", h[:6])
}

// =============================================================================
// Standalone commands (no daemon needed)
// =============================================================================

func TestLength_Valid(t *testing.T) {
	dir := t.TempDir()
	stdout, _, exit := runTL(t, dir, "length", "家用菜板")
	if exit != 0 {
		t.Fatalf("exit %d", exit)
	}
	if !strings.Contains(stdout, "8/60") {
		t.Errorf("length output missing 8/60:\n%s", stdout)
	}
}

func TestLength_OverLimit(t *testing.T) {
	dir := t.TempDir()
	stdout, stderr, exit := runTL(t, dir, "length", strings.Repeat("菜", 31))
	if exit == 0 {
		t.Fatal("over-limit title should exit non-zero")
	}
	if !strings.Contains(stdout, "62/60 over limit") {
		t.Errorf("should report 62/60 over limit:\n%s", stdout)
	}
	if !strings.Contains(stderr, "limit is 60") {
		t.Errorf("error should mention the limit:\n%s", stderr)
	}
}

func TestConfig_Basic(t *testing.T) {
	dir := setupWorkspace(t)
	stdout, _, exit := runTL(t, dir, "config")
	if exit != 0 {
		t.Fatalf("exit %d", exit)
	}
	for _, want := range []string{"Workspace:", "Root:", "DB:", "Socket:", "Daemon:", "not running"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("config missing %q:\n%s", want, stdout)
		}
	}
}

func TestConfig_YAML(t *testing.T) {
	dir := setupWorkspace(t)
	stdout, _, exit := runTL(t, dir, "config", "--yaml")
	if exit != 0 {
		t.Fatalf("exit %d", exit)
	}
	if !strings.Contains(stdout, "match_mode: substring") {
		t.Errorf("yaml missing match_mode:\n%s", stdout)
	}
}

func TestConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".titlelab", "config.yaml"), "match_mode: fuzzy\n")
	_, stderr, exit := runTL(t, dir, "config")
	if exit == 0 {
		t.Fatal("invalid config should fail")
	}
	if !strings.Contains(stderr, "MatchMode") {
		t.Errorf("error should name the field:\n%s", stderr)
	}
}

func TestHealth_NoDaemon(t *testing.T) {
	dir := t.TempDir()
	stdout, _, exit := runTL(t, dir, "health")
	if exit != 0 {
		t.Fatalf("exit %d", exit)
	}
	if !strings.Contains(stdout, "not running") {
		t.Errorf("should say 'not running':\n%s", stdout)
	}
}

// =============================================================================
// Offline workflow: commands open the workspace database directly
// =============================================================================

func TestKeywords_SampleByDefault(t *testing.T) {
	dir := setupWorkspace(t)
	stdout, _, exit := runTL(t, dir, "keywords", "--limit", "3")
	if exit != 0 {
		t.Fatalf("exit %d", exit)
	}
	if !strings.Contains(stdout, "3/15 keywords") {
		t.Errorf("fresh workspace should list the sample dataset:\n%s", stdout)
	}
}

func TestImport_ThenKeywords(t *testing.T) {
	dir := setupWorkspace(t)
	stdout, _, exit := runTL(t, dir, "import", "export.csv")
	if exit != 0 {
		t.Fatalf("import exit %d", exit)
	}
	if !strings.Contains(stdout, "imported export.csv") || !strings.Contains(stdout, "3 keywords") {
		t.Errorf("unexpected import output:\n%s", stdout)
	}

	// Persisted across processes.
	stdout, _, exit = runTL(t, dir, "keywords", "--token", "不锈钢")
	if exit != 0 {
		t.Fatalf("keywords exit %d", exit)
	}
	if !strings.Contains(stdout, "1/3 keywords") || !strings.Contains(stdout, "不锈钢菜板") {
		t.Errorf("token filter should keep one row:\n%s", stdout)
	}
}

func TestImport_Unreadable_FallsBack(t *testing.T) {
	dir := setupWorkspace(t)
	writeFile(t, filepath.Join(dir, "empty.csv"), "")
	stdout, _, exit := runTL(t, dir, "import", "empty.csv")
	if exit != 0 {
		t.Fatalf("exit %d", exit)
	}
	if !strings.Contains(stdout, "sample dataset loaded") {
		t.Errorf("should fall back to the sample:\n%s", stdout)
	}
}

func TestImport_UnsupportedFormat(t *testing.T) {
	dir := setupWorkspace(t)
	writeFile(t, filepath.Join(dir, "notes.txt"), "菜板\n")
	_, stderr, exit := runTL(t, dir, "import", "notes.txt")
	if exit == 0 {
		t.Fatal("unsupported format should fail")
	}
	if !strings.Contains(stderr, "unsupported") {
		t.Errorf("error should mention 'unsupported':\n%s", stderr)
	}
}

func TestAnalyze_HistoryFilter(t *testing.T) {
	dir := setupWorkspace(t)
	runTL(t, dir, "import", "export.csv")

	stdout, _, exit := runTL(t, dir, "analyze", "家用菜板 不锈钢菜板")
	if exit != 0 {
		t.Fatalf("analyze exit %d", exit)
	}
	if !strings.Contains(stdout, "[自定义]") {
		t.Errorf("analysis should carry the custom tag:\n%s", stdout)
	}
	if !strings.Contains(stdout, "3 keywords") {
		t.Errorf("all three rows are contained in the title:\n%s", stdout)
	}

	stdout, _, exit = runTL(t, dir, "history")
	if exit != 0 {
		t.Fatalf("history exit %d", exit)
	}
	if !strings.Contains(stdout, "1 analyses") {
		t.Errorf("history should hold one entry:\n%s", stdout)
	}
	id := ""
	for _, f := range strings.Fields(stdout) {
		if strings.HasPrefix(f, "custom-") {
			id = f
			break
		}
	}
	if id == "" {
		t.Fatalf("no custom id in history:\n%s", stdout)
	}

	stdout, _, exit = runTL(t, dir, "filter", id, "--token", "家用")
	if exit != 0 {
		t.Fatalf("filter exit %d", exit)
	}
	if !strings.Contains(stdout, "1/3 keywords") {
		t.Errorf("filter by 家用 should keep one row:\n%s", stdout)
	}

	stdout, _, exit = runTL(t, dir, "history", "--delete", id)
	if exit != 0 {
		t.Fatalf("delete exit %d", exit)
	}
	if !strings.Contains(stdout, "deleted") {
		t.Errorf("should confirm deletion:\n%s", stdout)
	}
	stdout, _, _ = runTL(t, dir, "history")
	if !strings.Contains(stdout, "no analyses yet") {
		t.Errorf("history should be empty:\n%s", stdout)
	}
}

func TestAnalyze_Stdin(t *testing.T) {
	dir := setupWorkspace(t)
	cmd := exec.Command(titlelabBin, "analyze")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "NO_COLOR=1")
	cmd.Stdin = strings.NewReader("厨房剪刀\n")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("analyze from stdin: %v", err)
	}
	if !strings.Contains(string(out), "厨房剪刀") {
		t.Errorf("should analyze the piped title:\n%s", out)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	dir := setupWorkspace(t)
	_, _, exit := runTL(t, dir, "analyze", "   ")
	if exit == 0 {
		t.Fatal("empty title should fail")
	}
}

func TestRecommend_Board(t *testing.T) {
	dir := setupWorkspace(t)
	stdout, _, exit := runTL(t, dir, "recommend")
	if exit != 0 {
		t.Fatalf("exit %d", exit)
	}
	for _, want := range []string{"11 recommended titles", "生命周期", "运营目标", "其他", "lc-1"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("recommend missing %q:\n%s", want, stdout)
		}
	}
}

func TestFilter_RecommendedOffline(t *testing.T) {
	dir := setupWorkspace(t)
	stdout, _, exit := runTL(t, dir, "filter", "lc-1")
	if exit != 0 {
		t.Fatalf("recommended ids resolve without a daemon, exit %d", exit)
	}
	if !strings.Contains(stdout, "lc-1") {
		t.Errorf("filter output should name the id:\n%s", stdout)
	}
}

func TestFilter_UnknownID(t *testing.T) {
	dir := setupWorkspace(t)
	_, stderr, exit := runTL(t, dir, "filter", "custom-missing")
	if exit == 0 {
		t.Fatal("unknown id should fail")
	}
	if !strings.Contains(stderr, "not found") {
		t.Errorf("error should mention 'not found':\n%s", stderr)
	}
}

// =============================================================================
// Wipe command: direct, via daemon, no data
// =============================================================================

func TestWipe_Direct(t *testing.T) {
	dir := setupWorkspace(t)
	runTL(t, dir, "import", "export.csv")

	stdout, _, exit := runTL(t, dir, "wipe", "--force")
	if exit != 0 {
		t.Fatalf("wipe exit %d", exit)
	}
	if !strings.Contains(stdout, "wiped") {
		t.Errorf("should say 'wiped':\n%s", stdout)
	}
	stdout, _, _ = runTL(t, dir, "keywords", "--limit", "1")
	if !strings.Contains(stdout, "sample") {
		t.Errorf("wipe should restore the sample dataset:\n%s", stdout)
	}
}

func TestWipe_NoData(t *testing.T) {
	dir := t.TempDir()
	stdout, _, exit := runTL(t, dir, "wipe", "--force")
	if exit != 0 {
		t.Fatalf("wipe on fresh dir exit %d", exit)
	}
	if !strings.Contains(stdout, "no data to wipe") {
		t.Errorf("should say 'no data to wipe':\n%s", stdout)
	}
}

// =============================================================================
// Daemon lifecycle
// =============================================================================

func TestDaemon_Workflow(t *testing.T) {
	dir := setupWorkspace(t)
	cleanup := startDaemon(t, dir)
	defer cleanup()

	stdout, _, exit := runTL(t, dir, "health")
	if exit != 0 {
		t.Fatalf("health exit %d", exit)
	}
	if !strings.Contains(stdout, "ok") || !strings.Contains(stdout, "Dashboard:") {
		t.Errorf("health should report a running daemon with a dashboard:\n%s", stdout)
	}

	stdout, _, exit = runTL(t, dir, "import", "export.csv")
	if exit != 0 || !strings.Contains(stdout, "3 keywords") {
		t.Fatalf("import via daemon exit %d:\n%s", exit, stdout)
	}

	stdout, _, exit = runTL(t, dir, "wipe", "--force")
	if exit != 0 {
		t.Fatalf("wipe via daemon exit %d", exit)
	}
	if !strings.Contains(stdout, "daemon") {
		t.Errorf("should indicate wipe went via daemon:\n%s", stdout)
	}

	stdout, _, _ = runTL(t, dir, "config")
	if !strings.Contains(stdout, "✓ running") {
		t.Errorf("config should see the daemon:\n%s", stdout)
	}
}

func TestDaemon_AlreadyRunning(t *testing.T) {
	dir := setupWorkspace(t)
	cleanup := startDaemon(t, dir)
	defer cleanup()

	stdout, _, exit := runTL(t, dir, "daemon", "start")
	if exit != 0 {
		t.Fatalf("exit %d", exit)
	}
	if !strings.Contains(stdout, "already running") {
		t.Errorf("should say 'already running':\n%s", stdout)
	}
}

func TestDaemon_StopNotRunning(t *testing.T) {
	dir := t.TempDir()
	stdout, _, exit := runTL(t, dir, "daemon", "stop")
	if exit != 0 {
		t.Fatalf("exit %d", exit)
	}
	if !strings.Contains(stdout, "not running") {
		t.Errorf("should say 'not running':\n%s", stdout)
	}
}

func TestLockedDB_OrphanedDaemon(t *testing.T) {
	dir := setupWorkspace(t)
	cleanup := startDaemon(t, dir)
	defer cleanup()

	// Remove the socket: the daemon still holds the bbolt lock.
	os.Remove(socketPathForDir(dir))

	start := time.Now()
	_, stderr, exit := runTL(t, dir, "keywords")
	elapsed := time.Since(start)

	if exit == 0 {
		t.Fatal("keywords should fail when the DB is locked")
	}
	if elapsed > 3*time.Second {
		t.Errorf("should fail fast (<3s), took %v", elapsed)
	}
	if !strings.Contains(stderr, "locked") {
		t.Errorf("error should mention 'locked':\n%s", stderr)
	}
}
