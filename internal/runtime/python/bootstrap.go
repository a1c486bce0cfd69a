package python

// bootstrap is passed to python -c with the submitted source as argv[1]. It
// installs an audit hook and then runs the source in a fresh __main__.
//
// Reads are allowed only below the sys.path entries present at startup, so
// imports of the standard library and installed packages keep working. Any
// open for writing, directory listings elsewhere, process creation, sockets,
// ctypes and filesystem mutation raise PermissionError.
const bootstrap = `
import os
import sys
import types


def _confine():
    source = sys.argv[1]
    sys.argv[:] = ["main.py"]
    sys.path[:] = [p for p in sys.path if p and p != "."]

    roots = tuple(sorted({os.path.realpath(p) for p in sys.path}))
    write_flags = os.O_WRONLY | os.O_RDWR | os.O_APPEND | os.O_CREAT | os.O_TRUNC
    blocked = (
        "subprocess.", "_posixsubprocess.", "os.exec", "os.spawn",
        "os.posix_spawn", "os.fork", "os.forkpty", "os.system", "os.kill",
        "os.killpg", "os.startfile", "os.remove", "os.rename", "os.rmdir",
        "os.mkdir", "os.mkfifo", "os.mknod", "os.chmod", "os.chown",
        "os.chflags", "os.lchflags", "os.link", "os.symlink", "os.truncate",
        "os.utime", "os.chdir", "os.chroot", "os.putenv", "os.unsetenv",
        "os.setxattr", "os.getxattr", "os.listxattr", "os.removexattr",
        "shutil.", "socket.", "ctypes.", "pty.", "webbrowser.", "urllib.",
        "http.", "ftplib.", "smtplib.", "poplib.", "imaplib.", "nntplib.",
        "telnetlib.", "sqlite3.", "dbm.", "mmap.", "resource.", "gc.get_",
        "sys._current_frames", "sys.settrace", "sys.setprofile",
    )
    guarded_attrs = ("__code__", "__defaults__", "__kwdefaults__")

    def deny(event):
        raise PermissionError(event + " is not permitted")

    def readable(path):
        if isinstance(path, int):
            return path in (0, 1, 2)
        if path is None:
            return False
        try:
            real = os.path.realpath(os.fsdecode(path))
        except Exception:
            return False
        for root in roots:
            if real == root or real.startswith(root + os.sep):
                return True
        return False

    def hook(event, args):
        if event == "open":
            path, mode, flags = (tuple(args) + (None, None, None))[:3]
            if isinstance(mode, str) and any(c in mode for c in "wax+"):
                deny(event)
            if isinstance(flags, int) and flags & write_flags:
                deny(event)
            if not readable(path):
                deny(event)
        elif event in ("os.listdir", "os.scandir"):
            path = args[0] if args and args[0] is not None else "."
            if not readable(path):
                deny(event)
        elif event == "object.__setattr__":
            if len(args) > 1 and args[1] in guarded_attrs:
                deny(event)
        elif event.startswith(blocked):
            deny(event)

    code = compile(source, "main.py", "exec")
    main = types.ModuleType("__main__")
    main.__dict__["__builtins__"] = __builtins__
    sys.modules["__main__"] = main
    sys.addaudithook(hook)
    return code, main.__dict__


_code, _namespace = _confine()
del _confine
exec(_code, _namespace)
`
