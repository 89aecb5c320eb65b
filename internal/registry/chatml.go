package registry

// Generic ChatML format. Assistant turns are generation targets; the
// opening role marker stays masked so the model only learns the reply.
const chatmlSource = `{%- for message in messages %}` +
	`{%- if message.role == 'assistant' %}` +
	`{{- '<|im_start|>assistant\n' }}` +
	`{% generation %}` +
	`{{- message.content + '<|im_end|>' + '\n' }}` +
	`{% endgeneration %}` +
	`{%- else %}` +
	`{{- '<|im_start|>' + message.role + '\n' + message.content + '<|im_end|>' + '\n' }}` +
	`{%- endif %}` +
	`{%- endfor %}` +
	`{%- if add_generation_prompt %}` +
	`{{- '<|im_start|>assistant\n' }}` +
	`{%- endif %}`
