package worker

// Worker runs jobs handed to it on its own channel, one at a time.
type Worker struct {
	pool       *jobChannelPool
	jobChannel chan Job
}

func newWorker(pool *jobChannelPool) *Worker {
	return &Worker{
		pool:       pool,
		jobChannel: make(chan Job),
	}
}

func (w *Worker) start() {
	go func() {
		defer w.pool.retire(w.jobChannel)
		if !w.pool.release(w.jobChannel) {
			return
		}
		for job := range w.jobChannel {
			if job.kind == jobStop {
				return
			}
			w.execute(job)
			if !w.pool.release(w.jobChannel) {
				return
			}
		}
	}()
}

func (w *Worker) execute(job Job) {
	if err := job.ctx.Err(); err != nil {
		job.finish("", err)
		return
	}
	text, err := job.run(job.ctx)
	job.finish(text, err)
}
