package plot

const plotTemplate = `% Generated on {{.GeneratedDate}}
%
% Experiment: {{.ExperimentName}}
% Task count: {{.Tasks}}
% Trials per sample: {{.Trials}}
% Contention policy: {{.Policy}}
%
\begin{tikzpicture}
	\begin{axis}[
		xlabel={Bus load},
		ylabel={Schedulability ratio},
		width=\textwidth,
		height=0.7\textwidth,
		xmin=0, xmax=1,
		ymin=0, ymax=1.05,
		ymajorgrids,
		grid style=dashed,
		legend pos=south west,
	]

{{range .Series}}% {{.Interconnects}} interconnect(s), source: {{.Source}}
\addplot+[{{.Style}}]
  coordinates {
{{range .Coordinates}}    {{.}}
{{end}}  };
\addlegendentry{ {{.Interconnects}} Int. }

{{end}}
	\end{axis}
\end{tikzpicture}
`

const wrapperTemplate = `% Generated on {{.GeneratedDate}}
% Experiment: {{.ExperimentName}}
% Task count: {{.Tasks}}
\begin{center}
    \begin{figure}[H]
    \centering
    \resizebox{1\linewidth}{!}{\input{./{{.PlotFileName}} }}
    \caption[{{.ShortCaption}}]{ {{.Caption}} }
    \label{fig:sched-ratio-t{{.Tasks}}}
    \end{figure}
\end{center}
`

type plotData struct {
	GeneratedDate  string
	ExperimentName string
	Tasks          int
	Trials         int
	Policy         string
	Series         []plotSeries
}

type plotSeries struct {
	Interconnects int
	Style         string
	Source        string
	Coordinates   []string
}

type wrapperData struct {
	GeneratedDate  string
	ExperimentName string
	Tasks          int
	PlotFileName   string
	ShortCaption   string
	Caption        string
}

var seriesStyles = []string{
	"mark=none, thick, blue",
	"mark=none, thick, red",
	"mark=none, thick, black!60!green",
	"mark=none, thick, orange",
	"mark=none, thick, violet",
}
