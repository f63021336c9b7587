package executor

// Filenames inside a run workspace. The generated script sees the
// workspace as its working directory, so the well-known artifact path in
// the prompt contract stays a bare filename.
const (
	datasetFile  = "data.csv"
	scriptFile   = "script.py"
	harnessFile  = "runner.py"
	artifactFile = "output.png"
)

// harness is the fixed Python entry point for every run. It forces the
// non-interactive matplotlib backend, neuters plt.show so execution can
// never block on a window, loads the dataset as `df`, executes the
// generated script in a clean namespace, and persists any open figure
// the script forgot to save. Script exceptions exit non-zero with the
// traceback on stderr; the harness itself must never mask them.
const harness = `import os
import sys
import traceback

import matplotlib
matplotlib.use('Agg')
import matplotlib.pyplot as plt
import pandas as pd

ARTIFACT = "output.png"

if os.path.exists(ARTIFACT):
    os.remove(ARTIFACT)

plt.show = lambda *args, **kwargs: None

df = pd.read_csv("data.csv")

try:
    with open("script.py") as f:
        code = f.read()
    exec(code, {"__name__": "__main__", "df": df})
    if plt.get_fignums() and not os.path.exists(ARTIFACT):
        plt.savefig(ARTIFACT)
except Exception:
    traceback.print_exc()
    sys.exit(1)
`
